package fs

import (
	"errors"
	"os"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PathInspector = (*Inspector)(nil)

// Inspector implements ports.PathInspector on the local filesystem.
type Inspector struct {
	hasher *Hasher
}

// NewInspector creates a new Inspector.
func NewInspector(hasher *Hasher) *Inspector {
	return &Inspector{hasher: hasher}
}

// Kind reports whether path is missing, a file or a directory. Symlinks are followed.
func (i *Inspector) Kind(path string) (domain.PathKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.PathMissing, nil
		}
		return domain.PathMissing, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}
	if info.IsDir() {
		return domain.PathDir, nil
	}
	return domain.PathFile, nil
}

// Fingerprint returns the tree hash of dir.
func (i *Inspector) Fingerprint(dir string) (string, error) {
	return i.hasher.ComputeTreeHash(dir)
}
