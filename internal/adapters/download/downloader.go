// Package download fetches artifact bytes over http(s) or from the local filesystem.
package download

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/lockres/internal/adapters/httpx"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

// Downloader implements ports.Downloader.
type Downloader struct {
	http *httpx.Client
}

// New creates a Downloader.
func New(http *httpx.Client) *Downloader {
	return &Downloader{http: http}
}

// Download returns the content at rawURL. http and https URLs are fetched with
// retries; file URLs and plain paths are read from disk.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || len(u.Scheme) <= 1 {
		return readFile(rawURL)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return d.http.Get(ctx, rawURL)
	case "file":
		return readFile(filepath.FromSlash(u.Path))
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrNetwork, "unsupported url scheme"), "url", rawURL)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the lock document
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrNotFound, "artifact does not exist"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read artifact"), "path", path)
	}
	return data, nil
}
