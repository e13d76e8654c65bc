package ports

import "go.trai.ch/lockres/internal/core/domain"

// PathInspector inspects local filesystem paths.
//
//go:generate go run go.uber.org/mock/mockgen -source=inspector.go -destination=mocks/mock_inspector.go -package=mocks
type PathInspector interface {
	// Kind reports whether path is missing, a file or a directory.
	Kind(path string) (domain.PathKind, error)
	// Fingerprint returns a content hash of the directory tree at dir.
	Fingerprint(dir string) (string, error)
}
