package lockfile

import (
	"os"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader reads lock documents from disk.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() ports.DocumentLoader {
	return &Loader{}
}

// Load reads and parses the document at path.
func (l *Loader) Load(path string) (*domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read lock document"), "path", path)
	}
	return Parse(raw)
}

// Write encodes doc to path, replacing any existing file atomically.
func Write(path string, doc *domain.Document) error {
	raw, err := Marshal(doc)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, raw)
}
