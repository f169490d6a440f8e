package files

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("file not found")
	ErrNoFiles  = errors.New("no file uploaded")
	ErrTooLarge = errors.New("file too large")
)

type (
	// Upload is a single file received from a client.
	Upload struct {
		Name        string
		ContentType string
		Size        int64
		Body        io.Reader
		Folder      string
	}

	// Store persists uploaded bytes.
	Store interface {
		Save(ctx context.Context, up Upload) (Descriptor, error)
	}

	// Opener reads back stored bytes by filename. It returns ErrNotFound when it has none.
	Opener interface {
		Open(ctx context.Context, filename string) (io.ReadCloser, error)
	}

	// Redirector is a Store whose files are delivered from its own hosts.
	Redirector interface {
		RedirectHosts() []string
	}

	Service struct {
		store         Store
		openers       []Opener
		maxBytes      int64
		redirectHosts []string
	}
)

// NewService returns a Service saving to store and reading back through openers, in order.
func NewService(store Store, maxBytes int64, openers ...Opener) *Service {
	svc := &Service{store: store, openers: openers, maxBytes: maxBytes}
	if r, ok := store.(Redirector); ok {
		svc.AllowRedirects(r.RedirectHosts()...)
	}
	return svc
}

// AllowRedirects adds hosts downloads may redirect to. Subdomains of a host are allowed too.
func (svc *Service) AllowRedirects(hosts ...string) {
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			svc.redirectHosts = append(svc.redirectHosts, h)
		}
	}
}

// RedirectURL returns where to send a download of the external file at raw, if it is on an allowed host.
func (svc *Service) RedirectURL(raw string, attachment bool) (string, bool) {
	return ExternalURL(raw, attachment, svc.redirectHosts)
}

// Save stores every upload. The first failure aborts the batch.
func (svc *Service) Save(ctx context.Context, uploads ...Upload) ([]Descriptor, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	for _, up := range uploads {
		if svc.maxBytes > 0 && up.Size > svc.maxBytes {
			return nil, ErrTooLarge
		}
	}
	descs := make([]Descriptor, 0, len(uploads))
	for _, up := range uploads {
		if up.ContentType == "" {
			up.ContentType = ContentTypeFor(up.Name)
		}
		d, err := svc.store.Save(ctx, up)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "saving %q", up.Name)
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// Open searches the candidate locations for filename.
func (svc *Service) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	if !SafeName(filename) {
		return nil, ErrNotFound
	}
	for _, o := range svc.openers {
		rc, err := o.Open(ctx, filename)
		if err == nil {
			return rc, nil
		}
		if err != ErrNotFound {
			return nil, pkgerrors.Wrapf(err, "opening %q", filename)
		}
	}
	return nil, ErrNotFound
}

// SafeName reports whether filename is a plain name that cannot escape a directory.
func SafeName(filename string) bool {
	return filename != "" && filename != "." &&
		!strings.Contains(filename, "..") &&
		!strings.ContainsAny(filename, `/\`) &&
		!strings.ContainsRune(filename, 0)
}

// ExternalURL validates an external download URL against the allowed hosts.
// With attachment set, Cloudinary delivery URLs get the `fl_attachment` flag.
func ExternalURL(raw string, attachment bool, hosts []string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.User != nil {
		return "", false
	}
	if !hostAllowed(strings.ToLower(u.Hostname()), hosts) {
		return "", false
	}
	if attachment && strings.HasSuffix(u.Host, "cloudinary.com") && !strings.Contains(u.Path, "/fl_attachment") {
		u.Path = strings.Replace(u.Path, "/upload/", "/upload/fl_attachment/", 1)
	}
	return u.String(), true
}

func hostAllowed(host string, hosts []string) bool {
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
