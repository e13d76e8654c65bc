// Package satisfier turns the satisfier block of each graph node into a concrete install spec.
package satisfier

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/lockres/internal/engine/sources"
	"go.trai.ch/zerr"
)

// Options controls satisfier resolution.
type Options struct {
	// DirectRelativeTo selects the base of relative direct references.
	DirectRelativeTo domain.DirectBase
	// WorkDir is the base used when DirectRelativeTo is cwd. Defaults to the process working directory.
	WorkDir string
	// FingerprintLocal records a content hash for local and editable sources.
	FingerprintLocal bool
	// Concurrency bounds the number of nodes resolved at once by ResolveGraph.
	Concurrency int
}

// Resolver resolves satisfiers. Path-based and direct forms are resolved
// against the filesystem only. Indirect forms are resolved against the source
// registry and, when an index client is configured, looked up eagerly.
type Resolver struct {
	inspector ports.PathInspector
	index     ports.IndexClient
	metrics   ports.Metrics
	opts      Options
}

// New creates a Resolver. index and metrics may be nil; without an index client
// indirect specs carry their effective source and leave the URL to the installer.
func New(inspector ports.PathInspector, index ports.IndexClient, metrics ports.Metrics, opts Options) *Resolver {
	if opts.DirectRelativeTo == "" {
		opts.DirectRelativeTo = domain.DirectRelativeToLock
	}
	if opts.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.WorkDir = wd
		}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Resolver{
		inspector: inspector,
		index:     index,
		metrics:   metrics,
		opts:      opts,
	}
}

// Resolve returns the install spec of key in doc. lockDir is the directory
// holding the lock document.
func (r *Resolver) Resolve(
	ctx context.Context,
	doc *domain.Document,
	key domain.Key,
	lockDir string,
	overrides map[string]string,
) (domain.InstallSpec, error) {
	node, ok := doc.Node(key)
	if !ok {
		return domain.InstallSpec{}, zerr.With(zerr.Wrap(domain.ErrUnknownKey, "key "+key.String()+" is not declared"), "key", string(key))
	}
	if node.Satisfier == nil {
		return domain.InstallSpec{}, zerr.With(zerr.Wrap(domain.ErrNoSatisfier, key.String()+" is a meta-dependency"), "key", string(key))
	}

	spec, err := r.resolve(ctx, doc, key, node.Satisfier, lockDir, overrides)
	if r.metrics != nil {
		r.metrics.ObserveResolution(node.Satisfier.Kind, err)
	}
	if err != nil {
		return domain.InstallSpec{}, zerr.With(err, "key", string(key))
	}
	return spec, nil
}

func (r *Resolver) resolve(
	ctx context.Context,
	doc *domain.Document,
	key domain.Key,
	sat *domain.Satisfier,
	lockDir string,
	overrides map[string]string,
) (domain.InstallSpec, error) {
	spec := domain.InstallSpec{Key: key, Name: sat.Name, Kind: sat.Kind}

	switch sat.Kind {
	case domain.SatisfierLocal, domain.SatisfierEditable:
		path, err := r.resolveDirectory(sat.Path, lockDir)
		if err != nil {
			return spec, err
		}
		spec.Path = path
		if r.opts.FingerprintLocal {
			fp, err := r.inspector.Fingerprint(path)
			if err != nil {
				return spec, zerr.Wrap(err, "failed to fingerprint local source")
			}
			spec.Fingerprint = fp
		}
		return spec, nil

	case domain.SatisfierDirect:
		return r.resolveDirect(spec, sat.URL, lockDir)

	case domain.SatisfierIndirect:
		eff, err := sources.Resolve(doc, sat.SourceID, overrides)
		if err != nil {
			return spec, err
		}
		spec.Source = &eff
		spec.Version = sat.Version
		if r.index == nil {
			return spec, nil
		}
		artifact, err := r.index.FetchIndex(ctx, eff, sat.Name, sat.Version)
		if err != nil {
			return spec, zerr.With(zerr.Wrap(err, "index lookup failed"), "source_id", eff.ID)
		}
		spec.URL = artifact
		return spec, nil

	default:
		return spec, zerr.Wrap(domain.ErrInvalidSatisfier, "unknown satisfier kind "+sat.Kind.String())
	}
}

func (r *Resolver) resolveDirectory(raw, lockDir string) (string, error) {
	path := resolvePath(raw, lockDir)
	kind, err := r.inspector.Kind(path)
	if err != nil {
		return "", err
	}
	switch kind {
	case domain.PathMissing:
		return "", zerr.With(zerr.Wrap(domain.ErrPathNotFound, path+" does not exist"), "path", path)
	case domain.PathFile:
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidSourceKind, path+" is a file"), "path", path)
	default:
		return path, nil
	}
}

func (r *Resolver) resolveDirect(spec domain.InstallSpec, raw, lockDir string) (domain.InstallSpec, error) {
	var path string
	switch scheme := urlScheme(raw); scheme {
	case "":
		base := lockDir
		if r.opts.DirectRelativeTo == domain.DirectRelativeToCwd {
			base = r.opts.WorkDir
		}
		path = resolvePath(raw, base)
	case "file":
		u, err := url.Parse(raw)
		if err != nil {
			return spec, zerr.With(zerr.Wrap(err, "invalid file url"), "url", raw)
		}
		path = filepath.FromSlash(u.Path)
	default:
		spec.URL = raw
		return spec, nil
	}

	kind, err := r.inspector.Kind(path)
	if err != nil {
		return spec, err
	}
	switch kind {
	case domain.PathMissing:
		return spec, zerr.With(zerr.Wrap(domain.ErrPathNotFound, path+" does not exist"), "path", path)
	case domain.PathDir:
		return spec, zerr.With(zerr.Wrap(domain.ErrInvalidDirectTarget, path+" is a directory"), "path", path)
	}
	spec.Path = path
	spec.URL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	return spec, nil
}

// resolvePath joins a relative path onto base and cleans it.
func resolvePath(p, base string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// urlScheme returns the lower-cased scheme of raw, or "" when raw is path-shaped.
// Single-letter schemes are treated as Windows drive letters.
func urlScheme(raw string) string {
	i := strings.Index(raw, "://")
	if i < 2 {
		if strings.HasPrefix(raw, "file:") {
			return "file"
		}
		return ""
	}
	scheme := raw[:i]
	for _, c := range scheme {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return ""
		}
	}
	return strings.ToLower(scheme)
}
