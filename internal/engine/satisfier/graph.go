package satisfier

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Resolution holds the per-node outcome of resolving a graph. Every node with a
// satisfier appears in exactly one of Specs and Failures.
type Resolution struct {
	Specs    map[domain.Key]domain.InstallSpec
	Failures map[domain.Key]error
}

// Failed reports whether any node failed to resolve.
func (r *Resolution) Failed() bool {
	return len(r.Failures) > 0
}

// Err joins every failure in key order under domain.ErrResolutionFailed, or returns nil.
func (r *Resolution) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	keys := make([]domain.Key, 0, len(r.Failures))
	for k := range r.Failures {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	errs := []error{domain.ErrResolutionFailed}
	for _, k := range keys {
		errs = append(errs, r.Failures[k])
	}
	return errors.Join(errs...)
}

// Ordered returns the resolved specs following the install order of g.
func (r *Resolution) Ordered(g *domain.ResolvedGraph) []domain.InstallSpec {
	specs := make([]domain.InstallSpec, 0, len(r.Specs))
	for k := range g.Walk() {
		if spec, ok := r.Specs[k]; ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// ResolveGraph resolves every node of g that declares a satisfier. Nodes are
// independent once the graph is fixed, so they are resolved concurrently. A
// failing node is recorded and never cancels its siblings.
func (r *Resolver) ResolveGraph(
	ctx context.Context,
	doc *domain.Document,
	g *domain.ResolvedGraph,
	lockDir string,
	overrides map[string]string,
) *Resolution {
	res := &Resolution{
		Specs:    make(map[domain.Key]domain.InstallSpec),
		Failures: make(map[domain.Key]error),
	}
	var mu sync.Mutex

	var eg errgroup.Group
	eg.SetLimit(r.opts.Concurrency)

	for key := range g.Walk() {
		node, ok := doc.Node(key)
		if !ok || node.Satisfier == nil {
			continue
		}
		eg.Go(func() error {
			var spec domain.InstallSpec
			err := ctx.Err()
			if err != nil {
				err = zerr.With(zerr.Wrap(err, "resolution cancelled"), "key", string(key))
			} else {
				spec, err = r.Resolve(ctx, doc, key, lockDir, overrides)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures[key] = err
				return nil
			}
			res.Specs[key] = spec
			return nil
		})
	}
	_ = eg.Wait()

	return res
}
