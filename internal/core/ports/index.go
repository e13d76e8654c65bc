package ports

import (
	"context"

	"go.trai.ch/lockres/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=mocks/mock_index.go -package=mocks

// IndexClient resolves an indirect reference to a concrete artifact URL.
type IndexClient interface {
	// FetchIndex returns the download URL of name at version in source.
	// It fails with domain.ErrNotFound or domain.ErrNetwork.
	FetchIndex(ctx context.Context, source domain.EffectiveSource, name, version string) (string, error)
}

// IndexCache stores index lookup results.
type IndexCache interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores value under key.
	Put(ctx context.Context, key, value string) error
}
