package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockres/internal/app"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/zerr"
)

// sessionFlags are shared by the commands that resolve a graph.
type sessionFlags struct {
	lock        string
	roots       []string
	env         map[string]string
	overrides   map[string]string
	offline     bool
	json        bool
	concurrency int
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.lock, "lock", "l", domain.LockFileName, "Path to the lock document")
	flags.StringArrayVarP(&f.roots, "root", "r", nil, `Root selector to resolve, e.g. "" or "[test]" (repeatable)`)
	flags.StringToStringVarP(&f.env, "env", "e", nil, "Marker environment variable as key=value (repeatable)")
	flags.StringToStringVar(&f.overrides, "override", nil, "Source URL override as source=url (repeatable)")
	flags.BoolVar(&f.offline, "offline", false, "Do not query package indexes")
	flags.BoolVar(&f.json, "json", false, "Print the result as JSON")
	flags.IntVar(&f.concurrency, "concurrency", 0, "Maximum nodes resolved or installed at once (0 uses the configured value)")
}

func (f *sessionFlags) options(configPath string) (app.ResolveOptions, error) {
	roots := make([]domain.Key, 0, len(f.roots))
	for _, r := range f.roots {
		key := domain.Key(r)
		if !key.Valid() {
			return app.ResolveOptions{}, zerr.With(zerr.Wrap(domain.ErrInvalidKey, "invalid root selector"), "key", r)
		}
		roots = append(roots, key)
	}

	return app.ResolveOptions{
		ConfigPath:  configPath,
		LockPath:    f.lock,
		Roots:       roots,
		Env:         marker.Environment(f.env),
		Overrides:   f.overrides,
		Offline:     f.offline,
		Concurrency: f.concurrency,
	}, nil
}
