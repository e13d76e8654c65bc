package ports

import "go.trai.ch/lockres/internal/core/domain"

// DocumentLoader defines the interface for reading lock documents.
//
//go:generate go run go.uber.org/mock/mockgen -source=document.go -destination=mocks/mock_document.go -package=mocks
type DocumentLoader interface {
	// Load reads and validates the lock document at path.
	// A structurally invalid document yields a *domain.DocumentError.
	Load(path string) (*domain.Document, error)
}
