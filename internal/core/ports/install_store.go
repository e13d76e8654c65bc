package ports

import "go.trai.ch/lockres/internal/core/domain"

//go:generate go run go.uber.org/mock/mockgen -source=install_store.go -destination=mocks/mock_install_store.go -package=mocks

// InstallStore remembers what each node was last installed with.
type InstallStore interface {
	// Get returns the record of key, or nil when the node was never installed.
	Get(key domain.Key) (*domain.InstallRecord, error)
	// Put stores rec, replacing any earlier record of the same key.
	Put(rec domain.InstallRecord) error
}
