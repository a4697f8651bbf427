package knowledge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/koopa0/parley/internal/filter"
	"github.com/koopa0/parley/internal/log"
)

// Uploads persists original uploaded files under a single directory. A
// flock file lock serializes writers, so two processes sharing the
// directory cannot clobber each other's saves.
type Uploads struct {
	dir    string
	lock   *flock.Flock
	logger log.Logger
}

// NewUploads creates the uploads store, creating dir if needed.
func NewUploads(dir string, logger log.Logger) (*Uploads, error) {
	if dir == "" {
		return nil, fmt.Errorf("uploads directory is empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &Uploads{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, ".parley.lock")),
		logger: logger,
	}, nil
}

// SaveUpload validates and writes an uploaded file. The stored name is
// the base of the provided name; path components are discarded.
func (u *Uploads) SaveUpload(name string, data []byte) (string, error) {
	if err := filter.ValidateUpload(name, data); err != nil {
		return "", err
	}

	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", filter.ErrUploadEmptyName, name)
	}
	dest := filepath.Join(u.dir, base)

	if err := u.lock.Lock(); err != nil {
		return "", fmt.Errorf("locking uploads directory: %w", err)
	}
	defer func() { _ = u.lock.Unlock() }()

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload %q: %w", base, err)
	}

	u.logger.Info("upload saved", "name", base, "bytes", len(data))
	return dest, nil
}

// Dir returns the uploads directory path.
func (u *Uploads) Dir() string { return u.dir }
