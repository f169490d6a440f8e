package filestore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/files"
)

// stores
const (
	StoreLocal      = "local"
	StoreCloudinary = "cloudinary"
	StoreB2         = "b2"
)

// tempUploadsDir is the fallback uploads dir, under the system temp dir.
const tempUploadsDir = "pte-uploads"

var ErrUnknownStore = errors.New("unsupported FILE_STORE")

// TempDir returns the fallback uploads dir searched by downloads.
func TempDir() string {
	return filepath.Join(os.TempDir(), tempUploadsDir)
}

// New returns the configured store and the readers searched by downloads, in order:
// the uploads dir, the temp uploads dir, then the object store when it can be read back.
func New(ctx context.Context, conf *core.Config) (files.Store, []files.Opener, error) {
	local := NewLocal(conf.Files.UploadsDir)
	openers := []files.Opener{local, NewLocal(TempDir())}

	switch conf.Files.Store {
	case "", StoreLocal:
		return local, openers, nil

	case StoreCloudinary:
		store, err := NewCloudinary(conf.Files.CloudinaryURL)
		if err != nil {
			return nil, nil, err
		}
		return store, openers, nil

	case StoreB2:
		store, err := NewB2(ctx, conf.Files.B2AccountID, conf.Files.B2AppKey, conf.Files.B2Bucket)
		if err != nil {
			return nil, nil, err
		}
		return store, append(openers, store), nil

	default:
		return nil, nil, errors.Wrapf(ErrUnknownStore, "%q", conf.Files.Store)
	}
}

// NewService builds the file service from configuration.
func NewService(ctx context.Context, conf *core.Config) (*files.Service, error) {
	store, openers, err := New(ctx, conf)
	if err != nil {
		return nil, err
	}
	svc := files.NewService(store, conf.Files.MaxUploadBytes, openers...)
	svc.AllowRedirects(conf.Files.RedirectHosts...)
	return svc, nil
}
