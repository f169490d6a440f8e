package files

import (
	"path"
	"strings"
)

// Folders used to group uploads in external stores.
const (
	FolderSubmissions = "pte-submissions"
	FolderMaterials   = "pte-materials"
)

const defaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".txt":  "text/plain; charset=utf-8",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentTypeFor derives a Content-Type from the filename extension.
func ContentTypeFor(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return defaultContentType
}

// Descriptor locates stored bytes: a store filename (or key), and/or an external URL + public ID.
type Descriptor struct {
	OriginalName string `json:"originalName"`
	Filename     string `json:"filename,omitempty"`
	URL          string `json:"url,omitempty"`
	PublicID     string `json:"publicId,omitempty"`
	Size         int64  `json:"size,omitempty"`
	MimeType     string `json:"mimetype,omitempty"`
}
