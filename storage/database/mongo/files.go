package mongodb

import "github.com/trezcool/ptemanager/core/files"

type fileDoc struct {
	OriginalName string `bson:"originalName"`
	Filename     string `bson:"filename,omitempty"`
	URL          string `bson:"url,omitempty"`
	PublicID     string `bson:"publicId,omitempty"`
	Size         int64  `bson:"size,omitempty"`
	MimeType     string `bson:"mimetype,omitempty"`
}

func toFileDocs(descs []files.Descriptor) []fileDoc {
	docs := make([]fileDoc, 0, len(descs))
	for _, d := range descs {
		docs = append(docs, fileDoc(d))
	}
	return docs
}

func toDescriptors(docs []fileDoc) []files.Descriptor {
	descs := make([]files.Descriptor, 0, len(docs))
	for _, d := range docs {
		descs = append(descs, files.Descriptor(d))
	}
	return descs
}
