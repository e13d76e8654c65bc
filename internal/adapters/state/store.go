// Package state persists install records between sessions.
package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.InstallStore using a flat JSON file.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[domain.Key]domain.InstallRecord
	// writeMu orders saves so the last write holds every record.
	writeMu sync.Mutex
}

// NewStore creates a new InstallStore backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[domain.Key]domain.InstallRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to read install state"), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unmarshal install state"), "path", s.path)
	}

	return nil
}

func (s *Store) save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	data, err := json.MarshalIndent(s.cache, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return zerr.Wrap(err, "failed to marshal install state")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create install state directory"), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".installs-*.json")
	if err != nil {
		return zerr.Wrap(err, "failed to create install state file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write install state")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to write install state")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace install state"), "path", s.path)
	}
	return nil
}

// Get retrieves the install record of key.
func (s *Store) Get(key domain.Key) (*domain.InstallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.cache[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Put stores the install record.
func (s *Store) Put(rec domain.InstallRecord) error {
	s.mu.Lock()
	s.cache[rec.Key] = rec
	s.mu.Unlock()

	return s.save()
}
