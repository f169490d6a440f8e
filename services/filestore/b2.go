package filestore

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core/files"
)

// B2 stores uploads in a Backblaze B2 bucket under `<folder>/<timestamp>-<name>`.
type B2 struct {
	bucket *b2.Bucket
}

var (
	_ files.Store      = (*B2)(nil)
	_ files.Opener     = (*B2)(nil)
	_ files.Redirector = (*B2)(nil)
)

func NewB2(ctx context.Context, accountID, appKey, bucketName string) (*B2, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, errors.Wrap(err, "authorizing b2 account")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrapf(err, "opening b2 bucket %q", bucketName)
	}
	return &B2{bucket: bucket}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

func (s *B2) Save(ctx context.Context, up files.Upload) (files.Descriptor, error) {
	name := storedName(up.Name)
	obj := s.bucket.Object(path.Join(up.Folder, name))

	w := obj.NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: up.ContentType}))
	body := &countingReader{r: up.Body}
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return files.Descriptor{}, errors.Wrap(err, "uploading to b2")
	}
	if err := w.Close(); err != nil {
		return files.Descriptor{}, errors.Wrap(err, "uploading to b2")
	}
	return files.Descriptor{
		OriginalName: up.Name,
		Filename:     name,
		URL:          obj.URL(),
		PublicID:     obj.Name(),
		Size:         body.n,
		MimeType:     up.ContentType,
	}, nil
}

// Open looks the filename up in the upload folders.
func (s *B2) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	for _, folder := range []string{files.FolderSubmissions, files.FolderMaterials, ""} {
		obj := s.bucket.Object(strings.TrimPrefix(path.Join(folder, filename), "/"))
		if _, err := obj.Attrs(ctx); err != nil {
			if b2.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrap(err, "reading b2 object attributes")
		}
		return obj.NewReader(ctx), nil
	}
	return nil, files.ErrNotFound
}

// RedirectHosts returns the bucket's download host.
func (s *B2) RedirectHosts() []string {
	u, err := url.Parse(s.bucket.BaseURL())
	if err != nil || u.Hostname() == "" {
		return nil
	}
	return []string{u.Hostname()}
}
