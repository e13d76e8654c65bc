package domain

import (
	"runtime"
	"time"

	"go.trai.ch/lockres/internal/core/marker"
)

// DirectBase selects the base directory for relative direct references.
type DirectBase string

const (
	// DirectRelativeToLock resolves against the directory holding the lock document.
	DirectRelativeToLock DirectBase = "lock"
	// DirectRelativeToCwd resolves against the working directory.
	DirectRelativeToCwd DirectBase = "cwd"
)

// CacheBackend names an index lookup cache implementation.
type CacheBackend string

const (
	CacheFile  CacheBackend = "file"
	CacheRedis CacheBackend = "redis"
	CacheNone  CacheBackend = "none"
)

// CacheConfig configures the index lookup cache.
type CacheConfig struct {
	Backend   CacheBackend
	Dir       string
	RedisAddr string
	TTL       time.Duration
}

// IndexConfig configures index and download requests.
type IndexConfig struct {
	Timeout time.Duration
	Retries int
}

// InstallerConfig configures the package installer.
type InstallerConfig struct {
	Python    string
	ExtraArgs []string
	// StatePath is the install record store. Empty disables skipping unchanged nodes.
	StatePath string
}

// SessionConfig is the configuration of one resolution session.
type SessionConfig struct {
	Environment            marker.Environment
	Overrides              map[string]string
	Concurrency            int
	DirectRelativeTo       DirectBase
	AllowCompetingVariants bool
	Cache                  CacheConfig
	Index                  IndexConfig
	Installer              InstallerConfig
}

// DefaultSessionConfig returns the built-in defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		Environment:      marker.HostEnvironment(),
		Overrides:        map[string]string{},
		Concurrency:      runtime.NumCPU(),
		DirectRelativeTo: DirectRelativeToLock,
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     DefaultIndexCachePath(),
			TTL:     24 * time.Hour,
		},
		Index: IndexConfig{
			Timeout: 30 * time.Second,
			Retries: 3,
		},
		Installer: InstallerConfig{
			Python:    "python3",
			StatePath: DefaultInstallStatePath(),
		},
	}
}
