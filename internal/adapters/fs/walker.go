// Package fs provides file system adapters for inspecting and fingerprinting paths.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"

	"go.trai.ch/zerr"
)

// skippedDirs are never part of a source tree fingerprint.
var skippedDirs = []string{".git", ".jj", ".hg", "__pycache__", ".venv", ".tox", ".lockres"}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all regular files below root in lexical order, skipping VCS,
// virtualenv and bytecode directories and any name matching ignores.
// A walk error is yielded once with an empty path and ends the walk.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root {
				if skip, action := w.shouldSkip(d, ignores); skip {
					return action
				}
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", zerr.With(zerr.Wrap(err, "failed to walk source tree"), "root", root))
		}
	}
}

// shouldSkip reports whether d is excluded and the WalkDir result to return for it.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()
	if d.IsDir() && slices.Contains(skippedDirs, name) {
		return true, filepath.SkipDir
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}
