package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core/files"
)

const downloadPath = "/api/download/"

var nowFunc = time.Now // mockable

// Local keeps uploads in a directory served back by the download route.
type Local struct {
	dir string
}

var (
	_ files.Store  = (*Local)(nil)
	_ files.Opener = (*Local)(nil)
)

func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// cleanName replaces every rune outside [A-Za-z0-9._-] by `_`.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	cleaned := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_') {
			return r
		}
		return '_'
	}, name)
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}

// storedName disambiguates uploads sharing a name.
func storedName(name string) string {
	return strconv.FormatInt(nowFunc().UnixNano(), 10) + "-" + cleanName(name)
}

func (s *Local) Save(_ context.Context, up files.Upload) (files.Descriptor, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return files.Descriptor{}, errors.Wrap(err, "creating uploads dir")
	}
	name := storedName(up.Name)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return files.Descriptor{}, errors.Wrap(err, "creating file")
	}
	n, err := io.Copy(f, up.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return files.Descriptor{}, errors.Wrap(err, "writing file")
	}
	return files.Descriptor{
		OriginalName: up.Name,
		Filename:     name,
		URL:          downloadPath + name,
		Size:         n,
		MimeType:     up.ContentType,
	}, nil
}

func (s *Local) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, files.ErrNotFound
		}
		return nil, err
	}
	if st, err := f.Stat(); err != nil || st.IsDir() {
		_ = f.Close()
		return nil, files.ErrNotFound
	}
	return f, nil
}
