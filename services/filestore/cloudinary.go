package filestore

import (
	"context"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core/files"
)

// Cloudinary uploads to a Cloudinary cloud. Files are read back through their delivery URL.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

const cloudinaryDeliveryHost = "res.cloudinary.com"

var (
	_ files.Store      = (*Cloudinary)(nil)
	_ files.Redirector = (*Cloudinary)(nil)
)

// NewCloudinary takes a `cloudinary://<key>:<secret>@<cloud>` URL.
func NewCloudinary(rawURL string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "configuring cloudinary")
	}
	return &Cloudinary{cld: cld}, nil
}

// resourceType maps a MIME type to the Cloudinary resource kind. Audio is handled as video.
func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"), strings.HasPrefix(contentType, "audio/"):
		return "video"
	default:
		return "raw"
	}
}

func (s *Cloudinary) Save(ctx context.Context, up files.Upload) (files.Descriptor, error) {
	res, err := s.cld.Upload.Upload(ctx, up.Body, uploader.UploadParams{
		Folder:       up.Folder,
		ResourceType: resourceType(up.ContentType),
	})
	if err != nil {
		return files.Descriptor{}, errors.Wrap(err, "uploading to cloudinary")
	}
	if res.Error.Message != "" {
		return files.Descriptor{}, errors.Errorf("uploading to cloudinary: %s", res.Error.Message)
	}
	return files.Descriptor{
		OriginalName: up.Name,
		URL:          res.SecureURL,
		PublicID:     res.PublicID,
		Size:         int64(res.Bytes),
		MimeType:     up.ContentType,
	}, nil
}

func (s *Cloudinary) RedirectHosts() []string {
	return []string{cloudinaryDeliveryHost}
}
