package app

import (
	"context"
	"errors"
	"io"

	"go.trai.ch/lockres/internal/adapters/cache"    //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/download" //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/httpx"    //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/index"    //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/pip"      //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/state"    //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/zerr"
)

// Compiler turns a requirements input into pinned, hashed requirements text.
type Compiler interface {
	Compile(ctx context.Context, input, indexURL string) ([]byte, error)
}

// Session holds the collaborators configured for one resolution session.
// Index is nil when the session runs offline. Store is nil when install state
// is not persisted.
type Session struct {
	Index      ports.IndexClient
	Downloader ports.Downloader
	Installer  ports.Installer
	Compiler   Compiler
	Store      ports.InstallStore

	closers []io.Closer
}

// Close releases the resources held by the session.
func (s *Session) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SessionFactory builds the collaborators of a session from its configuration.
type SessionFactory func(ctx context.Context, cfg *domain.SessionConfig, offline bool) (*Session, error)

// NewSession is the default SessionFactory. It wires the index cache, the
// HTTP index client, the downloader, the pip installer and the install state store.
func NewSession(logger ports.Logger, metrics ports.Metrics) SessionFactory {
	return func(ctx context.Context, cfg *domain.SessionConfig, offline bool) (*Session, error) {
		client := httpx.NewClient(cfg.Index.Timeout, cfg.Index.Retries)
		installer := pip.NewInstaller(cfg.Installer.Python, cfg.Installer.ExtraArgs, logger)

		s := &Session{
			Downloader: download.New(client),
			Installer:  installer,
			Compiler:   installer,
		}
		if cfg.Installer.StatePath != "" {
			store, err := state.NewStore(cfg.Installer.StatePath)
			if err != nil {
				return nil, zerr.Wrap(err, "failed to open install state")
			}
			s.Store = store
		}
		if offline {
			return s, nil
		}

		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to open index cache")
		}
		if closer, ok := c.(io.Closer); ok {
			s.closers = append(s.closers, closer)
		}
		s.Index = index.New(client, c, metrics)
		return s, nil
	}
}
