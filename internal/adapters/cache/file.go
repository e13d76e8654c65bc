// Package cache implements index lookup caches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

type fileEntry struct {
	Key      string    `json:"key"`
	Value    string    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// FileCache stores one JSON file per key. Entries older than the TTL are
// misses; a zero TTL never expires.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileCache creates a FileCache rooted at dir, creating it if needed.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	cleanPath := filepath.Clean(dir)
	if err := os.MkdirAll(cleanPath, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create cache directory"), "path", cleanPath)
	}
	return &FileCache{dir: cleanPath, ttl: ttl, now: time.Now}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(key)))
}

// Get returns the cached value of key.
func (c *FileCache) Get(_ context.Context, key string) (string, bool, error) {
	//nolint:gosec // Path is constructed from the cache directory and a hashed filename
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, zerr.Wrap(err, "failed to read cache entry")
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false, zerr.Wrap(err, "failed to decode cache entry")
	}
	// Hash collisions read as misses.
	if entry.Key != key {
		return "", false, nil
	}
	if c.ttl > 0 && c.now().Sub(entry.StoredAt) > c.ttl {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Put stores value under key, replacing any previous entry.
func (c *FileCache) Put(_ context.Context, key, value string) error {
	data, err := json.MarshalIndent(fileEntry{Key: key, Value: value, StoredAt: c.now()}, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode cache entry")
	}
	if err := atomicWriteFile(c.path(key), data); err != nil {
		return zerr.Wrap(err, "failed to write cache entry")
	}
	return nil
}

// atomicWriteFile writes data to a file atomically by writing to a temp file and renaming it.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "index-cache-*.json")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
