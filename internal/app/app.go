// Package app implements the application layer for lockres.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/lockres/internal/adapters/lockfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/lockres/internal/engine/graph"
	"go.trai.ch/lockres/internal/engine/lockgen"
	"go.trai.ch/lockres/internal/engine/satisfier"
	"go.trai.ch/lockres/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	documents    ports.DocumentLoader
	inspector    ports.PathInspector
	schedulers   *scheduler.Factory
	metrics      ports.Metrics
	logger       ports.Logger
	newSession   SessionFactory
	artifactDir  string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	documents ports.DocumentLoader,
	inspector ports.PathInspector,
	schedulers *scheduler.Factory,
	metrics ports.Metrics,
	logger ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		documents:    documents,
		inspector:    inspector,
		schedulers:   schedulers,
		metrics:      metrics,
		logger:       logger,
		newSession:   NewSession(logger, metrics),
		artifactDir:  domain.DefaultArtifactPath(),
	}
}

// WithSessionFactory replaces the factory building per-session collaborators.
func (a *App) WithSessionFactory(f SessionFactory) *App {
	a.newSession = f
	return a
}

// WithArtifactDir sets the directory downloaded artifacts are stored in.
func (a *App) WithArtifactDir(dir string) *App {
	a.artifactDir = dir
	return a
}

// ResolveOptions configures a resolution session.
type ResolveOptions struct {
	ConfigPath string
	LockPath   string
	// Roots are the selectors to build the graph for. Defaults to the root meta key.
	Roots []domain.Key
	// Env is layered over the configured environment.
	Env marker.Environment
	// Overrides are layered over the configured source overrides.
	Overrides map[string]string
	// Offline skips index lookups; indirect specs keep only their effective source.
	Offline bool
	// Concurrency overrides the configured bound on nodes processed at once.
	Concurrency int
}

// ResolveResult is the outcome of a resolution session.
type ResolveResult struct {
	SessionID  string
	LockPath   string
	Document   *domain.Document
	Graph      *domain.ResolvedGraph
	Resolution *satisfier.Resolution
	Specs      []domain.InstallSpec
}

// Resolve loads the lock document, builds the graph of the requested roots and
// resolves every node to an install spec. Per-node failures are returned in the
// result and joined into the error, so callers get partial results either way.
func (a *App) Resolve(ctx context.Context, opts ResolveOptions) (*ResolveResult, error) {
	cfg, err := a.loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Concurrency > 0 {
		cfg.Concurrency = opts.Concurrency
	}

	session, err := a.newSession(ctx, cfg, opts.Offline)
	if err != nil {
		return nil, err
	}
	defer a.closeSession(session)

	result, err := a.resolve(ctx, cfg, session, opts, false)
	if result != nil {
		for _, key := range slices.Sorted(maps.Keys(result.Resolution.Failures)) {
			a.logger.Error(result.Resolution.Failures[key])
		}
	}
	return result, err
}

func (a *App) resolve(
	ctx context.Context,
	cfg *domain.SessionConfig,
	session *Session,
	opts ResolveOptions,
	fingerprint bool,
) (*ResolveResult, error) {
	sessionID := uuid.NewString()
	lockPath := opts.LockPath
	if lockPath == "" {
		lockPath = domain.LockFileName
	}

	doc, err := a.loadDocument(lockPath)
	if err != nil {
		return nil, err
	}

	env := cfg.Environment.Merge(opts.Env)
	roots := opts.Roots
	if len(roots) == 0 {
		roots = []domain.Key{domain.RootKey}
	}

	g, err := graph.NewBuilder(graph.Options{
		AllowCompetingVariants: cfg.AllowCompetingVariants,
	}).BuildRoots(doc, roots, env)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to build dependency graph"), "session", sessionID)
	}
	a.logger.Info(fmt.Sprintf("built graph for %s: %d nodes, %d pruned edges",
		formatRoots(roots), g.Len(), len(g.Pruned)))
	for _, w := range g.Warnings {
		a.logger.Warn(w)
	}

	overrides := maps.Clone(cfg.Overrides)
	if overrides == nil {
		overrides = make(map[string]string)
	}
	maps.Copy(overrides, opts.Overrides)

	resolver := satisfier.New(a.inspector, session.Index, a.metrics, satisfier.Options{
		DirectRelativeTo: cfg.DirectRelativeTo,
		FingerprintLocal: fingerprint,
		Concurrency:      cfg.Concurrency,
	})

	lockDir, err := filepath.Abs(filepath.Dir(lockPath))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve lock directory"), "path", lockPath)
	}

	res := resolver.ResolveGraph(ctx, doc, g, lockDir, overrides)

	result := &ResolveResult{
		SessionID:  sessionID,
		LockPath:   lockPath,
		Document:   doc,
		Graph:      g,
		Resolution: res,
		Specs:      res.Ordered(g),
	}
	a.logger.Debug(fmt.Sprintf("session %s resolved %d specs, %d failures",
		sessionID, len(res.Specs), len(res.Failures)))

	return result, res.Err()
}

// InstallOptions configures an install session.
type InstallOptions struct {
	ResolveOptions
	// Python overrides the configured interpreter.
	Python string
	// Force reinstalls nodes whose recorded inputs are unchanged.
	Force bool
}

// InstallResult is the outcome of an install session.
type InstallResult struct {
	*ResolveResult
	Report *scheduler.Report
}

// Install resolves the requested roots and installs every node in dependency
// order. Nodes that failed to resolve fail their install and block their
// dependents; everything else proceeds.
func (a *App) Install(ctx context.Context, opts InstallOptions) (*InstallResult, error) {
	cfg, err := a.loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Concurrency > 0 {
		cfg.Concurrency = opts.Concurrency
	}
	if opts.Python != "" {
		cfg.Installer.Python = opts.Python
	}

	session, err := a.newSession(ctx, cfg, opts.Offline)
	if err != nil {
		return nil, err
	}
	defer a.closeSession(session)

	resolved, err := a.resolve(ctx, cfg, session, opts.ResolveOptions, true)
	if resolved == nil {
		return nil, err
	}

	sched := a.schedulers.New(session.Downloader, session.Installer, session.Store)
	report, runErr := sched.Run(ctx, scheduler.Plan{
		Document:    resolved.Document,
		Graph:       resolved.Graph,
		Specs:       resolved.Resolution.Specs,
		Failures:    resolved.Resolution.Failures,
		ArtifactDir: a.artifactDir,
		Salt:        installSalt(cfg.Installer),
		Force:       opts.Force,
	}, cfg.Concurrency)

	result := &InstallResult{ResolveResult: resolved, Report: report}
	a.logger.Info(fmt.Sprintf("installed %d, cached %d, failed %d, blocked %d, skipped %d",
		report.Count(domain.NodeStatusInstalled),
		report.Count(domain.NodeStatusCached),
		report.Count(domain.NodeStatusFailed),
		report.Count(domain.NodeStatusBlocked),
		report.Count(domain.NodeStatusSkipped)))

	if runErr != nil {
		return result, errors.Join(domain.ErrInstallExecutionFailed, runErr)
	}
	return result, nil
}

// installSalt identifies the interpreter an install targets, so records from
// one environment never satisfy another.
func installSalt(cfg domain.InstallerConfig) string {
	parts := append([]string{cfg.Python, os.Getenv("VIRTUAL_ENV")}, cfg.ExtraArgs...)
	return strings.Join(parts, "\x00")
}

// Verify reports whether the artifact at path passes the validations declared for key.
func (a *App) Verify(_ context.Context, lockPath string, key domain.Key, path string) (bool, error) {
	if lockPath == "" {
		lockPath = domain.LockFileName
	}
	doc, err := a.loadDocument(lockPath)
	if err != nil {
		return false, err
	}
	if _, ok := doc.Node(key); !ok {
		return false, zerr.With(zerr.Wrap(domain.ErrUnknownKey, "key "+key.String()+" is not declared"), "key", string(key))
	}
	return a.schedulers.Validator().ValidateFile(key, path, doc)
}

// Check loads and validates the lock document at lockPath.
func (a *App) Check(_ context.Context, lockPath string) (*domain.Document, error) {
	if lockPath == "" {
		lockPath = domain.LockFileName
	}
	return a.loadDocument(lockPath)
}

// LockOptions configures lock document generation.
type LockOptions struct {
	ConfigPath string
	// Input is a compiled requirements file, or a requirements input when Compile is set.
	Input string
	// Output is the lock document written. Defaults to pyproject.lock.json.
	Output   string
	IndexURL string
	// Compile runs the requirements compiler over Input first.
	Compile bool
}

// Lock generates a lock document from compiled requirements and writes it to opts.Output.
func (a *App) Lock(ctx context.Context, opts LockOptions) (*domain.Document, error) {
	output := opts.Output
	if output == "" {
		output = domain.LockFileName
	}
	if !strings.HasSuffix(output, domain.LockFileSuffix) {
		a.logger.Warn(fmt.Sprintf("%s does not end in %s", output, domain.LockFileSuffix))
	}

	indexURL := opts.IndexURL
	if indexURL == "" {
		indexURL = lockgen.DefaultIndexURL
	}

	data, err := a.requirements(ctx, opts, indexURL)
	if err != nil {
		return nil, err
	}

	doc, err := lockgen.Generate(bytes.NewReader(data), indexURL)
	if err != nil {
		return nil, zerr.With(err, "path", opts.Input)
	}
	if err := lockfile.Write(output, doc); err != nil {
		return nil, err
	}
	a.logger.Info(fmt.Sprintf("wrote %s with %d dependencies", output, len(doc.Nodes)))
	return doc, nil
}

func (a *App) requirements(ctx context.Context, opts LockOptions, indexURL string) ([]byte, error) {
	if !opts.Compile {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read requirements"), "path", opts.Input)
		}
		return data, nil
	}

	cfg, err := a.loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	session, err := a.newSession(ctx, cfg, true)
	if err != nil {
		return nil, err
	}
	defer a.closeSession(session)

	return session.Compiler.Compile(ctx, opts.Input, indexURL)
}

func (a *App) loadConfig(path string) (*domain.SessionConfig, error) {
	cfg, err := a.configLoader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

func (a *App) loadDocument(path string) (*domain.Document, error) {
	if !strings.HasSuffix(path, domain.LockFileSuffix) {
		a.logger.Warn(fmt.Sprintf("%s does not end in %s", path, domain.LockFileSuffix))
	}
	doc, err := a.documents.Load(path)
	if err != nil {
		return nil, err
	}
	a.logger.Info(fmt.Sprintf("loaded %s: %d dependencies, fingerprint %s", path, len(doc.Nodes), doc.Fingerprint))
	return doc, nil
}

func (a *App) closeSession(s *Session) {
	if err := s.Close(); err != nil {
		a.logger.Warn("failed to close session: " + err.Error())
	}
}

func formatRoots(roots []domain.Key) string {
	parts := make([]string, len(roots))
	for i, r := range roots {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
