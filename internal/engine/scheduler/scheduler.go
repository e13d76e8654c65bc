// Package scheduler installs the nodes of a resolved graph in dependency order.
package scheduler

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/lockres/internal/engine/validator"
	"go.trai.ch/zerr"
)

// Plan is the input of one install run.
type Plan struct {
	Document *domain.Document
	Graph    *domain.ResolvedGraph
	// Specs holds the resolved install spec of every node with a satisfier.
	Specs map[domain.Key]domain.InstallSpec
	// Failures holds nodes whose resolution failed. They fail without running
	// and block their dependents.
	Failures map[domain.Key]error
	// ArtifactDir receives downloaded artifacts.
	ArtifactDir string
	// Salt is mixed into every input hash, e.g. the interpreter installed into.
	Salt string
	// Force reinstalls nodes whose recorded inputs are unchanged.
	Force bool
}

// Report is the outcome of an install run.
type Report struct {
	Statuses map[domain.Key]domain.NodeStatus
	// Errors holds the failure of every failed or blocked node.
	Errors map[domain.Key]error
}

// Count returns the number of nodes with the given status.
func (r *Report) Count(status domain.NodeStatus) int {
	n := 0
	for _, s := range r.Statuses {
		if s == status {
			n++
		}
	}
	return n
}

// OnlyMismatches reports whether every failed node failed an artifact digest
// check. Nodes blocked by those failures are not counted.
func (r *Report) OnlyMismatches() bool {
	mismatches := 0
	for _, err := range r.Errors {
		switch {
		case errors.Is(err, domain.ErrDigestMismatch):
			mismatches++
		case errors.Is(err, domain.ErrDependencyBlocked):
		default:
			return false
		}
	}
	return mismatches > 0
}

// Scheduler drives the installer collaborator over a resolved graph.
type Scheduler struct {
	downloader ports.Downloader
	installer  ports.Installer
	validator  *validator.Validator
	store      ports.InstallStore
	telemetry  ports.Telemetry
	metrics    ports.Metrics
	logger     ports.Logger

	mu         sync.RWMutex
	nodeStatus map[domain.Key]domain.NodeStatus
}

// NewScheduler creates a new Scheduler. store and metrics may be nil; without a
// store every node is installed.
func NewScheduler(
	downloader ports.Downloader,
	installer ports.Installer,
	store ports.InstallStore,
	validator *validator.Validator,
	telemetry ports.Telemetry,
	metrics ports.Metrics,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		downloader: downloader,
		installer:  installer,
		validator:  validator,
		store:      store,
		telemetry:  telemetry,
		metrics:    metrics,
		logger:     logger,
		nodeStatus: make(map[domain.Key]domain.NodeStatus),
	}
}

func (s *Scheduler) initNodeStatuses(g *domain.ResolvedGraph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodeStatus = make(map[domain.Key]domain.NodeStatus, g.Len())
	for key := range g.Walk() {
		s.nodeStatus[key] = domain.NodeStatusPending
	}
}

func (s *Scheduler) updateStatus(key domain.Key, status domain.NodeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeStatus[key] = status
}

func (s *Scheduler) getStatus(key domain.Key) domain.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeStatus[key]
}

func (s *Scheduler) statuses() map[domain.Key]domain.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.nodeStatus)
}

// Run installs every node of plan.Graph, at most parallelism at a time. A node
// starts once all of its dependencies are installed or skipped. A failing node
// blocks its dependents only; independent nodes keep going. The returned error
// joins every node failure.
func (s *Scheduler) Run(ctx context.Context, plan Plan, parallelism int) (*Report, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	s.initNodeStatuses(plan.Graph)
	state := s.newRunState(ctx, plan, parallelism)

	// done is cleared once cancellation is seen so the loop then waits on
	// in-flight results only.
	done := state.ctx.Done()
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			break
		}

		select {
		case res := <-state.resultsCh:
			state.active--
			state.handleResult(res)
		case <-done:
			done = nil
		}
	}

	errs := state.errs
	if state.ctx.Err() != nil {
		errs = errors.Join(errs, state.ctx.Err())
	}

	return &Report{Statuses: s.statuses(), Errors: state.failures}, errs
}

type result struct {
	key     domain.Key
	status  domain.NodeStatus
	err     error
	elapsed time.Duration
}

type schedulerRunState struct {
	inDegree    map[domain.Key]int
	ready       []domain.Key
	active      int
	resultsCh   chan result
	errs        error
	failures    map[domain.Key]error
	ctx         context.Context
	parallelism int
	plan        Plan
	s           *Scheduler
}

func (s *Scheduler) newRunState(ctx context.Context, plan Plan, parallelism int) *schedulerRunState {
	inDegree := make(map[domain.Key]int, plan.Graph.Len())
	var ready []domain.Key
	for key := range plan.Graph.Walk() {
		inDegree[key] = len(plan.Graph.Deps(key))
		if inDegree[key] == 0 {
			ready = append(ready, key)
		}
	}

	return &schedulerRunState{
		inDegree:    inDegree,
		ready:       ready,
		resultsCh:   make(chan result, parallelism),
		failures:    make(map[domain.Key]error),
		ctx:         ctx,
		parallelism: parallelism,
		plan:        plan,
		s:           s,
	}
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		key := state.ready[0]
		state.ready = state.ready[1:]

		if err, failed := state.plan.Failures[key]; failed {
			state.handleResult(result{key: key, status: domain.NodeStatusFailed, err: err})
			continue
		}
		spec, ok := state.plan.Specs[key]
		if !ok {
			state.handleResult(result{key: key, status: domain.NodeStatusSkipped})
			continue
		}

		state.active++
		state.s.updateStatus(key, domain.NodeStatusRunning)

		go func() {
			state.resultsCh <- state.installNode(state.ctx, spec)
		}()
	}
}

func (state *schedulerRunState) installNode(ctx context.Context, spec domain.InstallSpec) result {
	start := time.Now()
	deps := state.plan.Graph.Deps(spec.Key)
	inputs := make([]string, 0, len(deps))
	for _, dep := range deps {
		inputs = append(inputs, vertexName(dep))
	}

	ctx, vertex := state.s.telemetry.Record(ctx, vertexName(spec.Key), ports.WithInputs(inputs...))

	hash, cacheable := InputHash(spec, state.plan.Salt)
	if cacheable && state.upToDate(spec.Key, hash) {
		vertex.Log(domain.LogLevelDebug, "inputs unchanged since "+spec.Key.String()+" was installed")
		vertex.Cached()
		vertex.Complete(nil)
		return result{key: spec.Key, status: domain.NodeStatusCached, elapsed: time.Since(start)}
	}

	err := state.executeNode(ports.ContextWithVertex(ctx, vertex), spec, vertex)
	if err == nil && cacheable {
		state.record(spec, hash)
	}
	vertex.Complete(err)

	status := domain.NodeStatusInstalled
	if err != nil {
		status = domain.NodeStatusFailed
	}
	return result{key: spec.Key, status: status, err: err, elapsed: time.Since(start)}
}

// InputHash digests what an install of spec depends on. Local sources are only
// cacheable when their content was fingerprinted.
func InputHash(spec domain.InstallSpec, salt string) (string, bool) {
	if spec.Kind == domain.SatisfierLocal && spec.Fingerprint == "" {
		return "", false
	}
	if spec.Kind == domain.SatisfierIndirect && spec.URL == "" {
		return "", false
	}

	parts := []string{
		spec.Name,
		spec.Kind.String(),
		spec.Version,
		spec.URL,
		spec.Path,
		spec.Fingerprint,
		salt,
	}
	return digest.FromString(strings.Join(parts, "\x00")).Encoded(), true
}

func (state *schedulerRunState) upToDate(key domain.Key, hash string) bool {
	if state.s.store == nil || state.plan.Force {
		return false
	}
	rec, err := state.s.store.Get(key)
	if err != nil {
		state.s.logger.Warn("failed to read install record of " + key.String() + ": " + err.Error())
		return false
	}
	return rec != nil && rec.InputHash == hash
}

func (state *schedulerRunState) record(spec domain.InstallSpec, hash string) {
	if state.s.store == nil {
		return
	}
	err := state.s.store.Put(domain.InstallRecord{
		Key:       spec.Key,
		InputHash: hash,
		Target:    spec.Target(),
		Timestamp: time.Now(),
	})
	if err != nil {
		state.s.logger.Warn("failed to record install of " + spec.Key.String() + ": " + err.Error())
	}
}

func (state *schedulerRunState) executeNode(ctx context.Context, spec domain.InstallSpec, vertex ports.Vertex) error {
	if spec.NeedsDownload() {
		artifact, err := state.fetchArtifact(ctx, spec, vertex)
		if err != nil {
			return err
		}
		if artifact != "" {
			if err := state.s.validator.Check(spec.Key, artifact, state.plan.Document); err != nil {
				return err
			}
			vertex.Log(domain.LogLevelDebug, "artifact validated: "+artifact)
			spec.Artifact = artifact
		}
	}

	vertex.Log(domain.LogLevelInfo, "installing "+spec.Target())
	return state.s.installer.Install(ctx, spec)
}

// fetchArtifact returns the local file holding the artifact of spec. Path-shaped
// direct references are used in place. An indirect reference without a URL is
// left to the installer, which is only allowed when no digests are declared.
func (state *schedulerRunState) fetchArtifact(ctx context.Context, spec domain.InstallSpec, vertex ports.Vertex) (string, error) {
	if spec.Path != "" {
		return spec.Path, nil
	}
	if spec.URL == "" {
		if _, declared := state.plan.Document.Validation(spec.Key); declared {
			return "", zerr.With(
				zerr.Wrap(domain.ErrResolutionFailed, "artifact url is unresolved and digests are declared"),
				"key", string(spec.Key))
		}
		vertex.Log(domain.LogLevelWarn, "artifact url unresolved, installing from source "+spec.Source.ID)
		return "", nil
	}

	vertex.Log(domain.LogLevelInfo, "downloading "+spec.URL)
	data, err := state.s.downloader.Download(ctx, spec.URL)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "download failed"), "url", spec.URL)
	}

	dir := filepath.Join(state.plan.ArtifactDir, digest.FromString(spec.URL).Encoded()[:16])
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create artifact directory"), "path", dir)
	}
	artifact := filepath.Join(dir, artifactName(spec))
	if err := os.WriteFile(artifact, data, domain.FilePerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to write artifact"), "path", artifact)
	}
	return artifact, nil
}

func artifactName(spec domain.InstallSpec) string {
	name := spec.URL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = name[strings.LastIndex(name, "/")+1:]
	if name == "" {
		return spec.Name
	}
	return name
}

func vertexName(key domain.Key) string {
	return "install " + key.String()
}

func (state *schedulerRunState) handleResult(res result) {
	if state.s.metrics != nil {
		state.s.metrics.ObserveInstall(res.status, res.elapsed)
	}

	if res.err != nil {
		wrappedErr := zerr.With(zerr.Wrap(res.err, "node install failed"), "key", string(res.key))
		state.errs = errors.Join(state.errs, wrappedErr)
		state.failures[res.key] = wrappedErr
		state.s.updateStatus(res.key, domain.NodeStatusFailed)
		state.s.logger.Error(wrappedErr)
		state.block(res.key)
		return
	}

	state.s.updateStatus(res.key, res.status)
	for _, dep := range state.plan.Graph.Dependents(res.key) {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 && state.s.getStatus(dep) == domain.NodeStatusPending {
			state.ready = append(state.ready, dep)
		}
	}
}

// block marks every pending transitive dependent of key as blocked.
func (state *schedulerRunState) block(key domain.Key) {
	queue := []domain.Key{key}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range state.plan.Graph.Dependents(cur) {
			if state.s.getStatus(dep) != domain.NodeStatusPending {
				continue
			}
			state.s.updateStatus(dep, domain.NodeStatusBlocked)
			state.failures[dep] = zerr.With(zerr.With(
				zerr.Wrap(domain.ErrDependencyBlocked, "dependency failed"),
				"key", string(dep)), "dependency", string(key))
			if state.s.metrics != nil {
				state.s.metrics.ObserveInstall(domain.NodeStatusBlocked, 0)
			}
			state.s.logger.Warn("skipping " + dep.String() + ": dependency " + key.String() + " failed")
			queue = append(queue, dep)
		}
	}
}
