package cache

import (
	"context"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/zerr"
)

// Noop never stores anything.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) (string, bool, error) { return "", false, nil }

// Put discards the value.
func (Noop) Put(context.Context, string, string) error { return nil }

// New returns the cache backend selected by cfg.
func New(ctx context.Context, cfg domain.CacheConfig) (ports.IndexCache, error) {
	switch cfg.Backend {
	case domain.CacheNone:
		return Noop{}, nil
	case domain.CacheRedis:
		if cfg.RedisAddr == "" {
			return nil, zerr.Wrap(domain.ErrInvalidConfig, "redis cache requires an address")
		}
		return NewRedisCache(ctx, cfg.RedisAddr, cfg.TTL)
	case domain.CacheFile, "":
		dir := cfg.Dir
		if dir == "" {
			dir = domain.DefaultIndexCachePath()
		}
		return NewFileCache(dir, cfg.TTL)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unknown cache backend"), "backend", string(cfg.Backend))
	}
}
