// Package graph expands a lock document into the resolved dependency graph of a root key.
package graph

import (
	"slices"
	"strings"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/zerr"
)

// Options controls graph building policy.
type Options struct {
	// AllowCompetingVariants downgrades several reachable variants of one base
	// name from an error to a warning on the resulting graph.
	AllowCompetingVariants bool
}

// Builder builds resolved graphs. It holds no per-build state and is safe for concurrent use.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder with opts.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build builds the graph of root in doc under the default options.
func Build(doc *domain.Document, root domain.Key, env marker.Environment) (*domain.ResolvedGraph, error) {
	return NewBuilder(Options{}).Build(doc, root, env)
}

// Build walks doc depth-first from root, pruning edges whose marker is false
// under env. It fails on an unknown root, a dangling edge, a cycle, or a marker
// that cannot be evaluated.
func (b *Builder) Build(doc *domain.Document, root domain.Key, env marker.Environment) (*domain.ResolvedGraph, error) {
	if _, ok := doc.Node(root); !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownRoot, "root "+root.String()+" is not declared"), "key", string(root))
	}

	w := &walk{
		doc:   doc,
		env:   env,
		state: make(map[domain.Key]int),
		deps:  make(map[domain.Key][]domain.Key),
	}
	if err := w.visit(root); err != nil {
		return nil, err
	}

	warnings, err := b.checkVariants(w.deps)
	if err != nil {
		return nil, err
	}
	return domain.NewResolvedGraph(root, w.deps, w.pruned, warnings), nil
}

// BuildRoots builds the graph of every root and returns their union.
func (b *Builder) BuildRoots(doc *domain.Document, roots []domain.Key, env marker.Environment) (*domain.ResolvedGraph, error) {
	if len(roots) == 0 {
		roots = []domain.Key{domain.RootKey}
	}
	graphs := make([]*domain.ResolvedGraph, 0, len(roots))
	for _, root := range roots {
		g, err := b.Build(doc, root, env)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	if len(graphs) == 1 {
		return graphs[0], nil
	}
	union := domain.Union(graphs...)
	warnings, err := b.checkVariants(union.DepsMap())
	if err != nil {
		return nil, err
	}
	union.Warnings = dedupe(append(union.Warnings, warnings...))
	return union, nil
}

const (
	unvisited = iota
	visiting
	visited
)

type walk struct {
	doc    *domain.Document
	env    marker.Environment
	state  map[domain.Key]int
	path   []domain.Key
	deps   map[domain.Key][]domain.Key
	pruned []domain.Edge
}

func (w *walk) visit(u domain.Key) error {
	w.state[u] = visiting
	w.path = append(w.path, u)

	node := w.doc.Nodes[u]
	active := make([]domain.Key, 0, len(node.Edges))
	for _, target := range node.Targets() {
		if _, ok := w.doc.Node(target); !ok {
			return zerr.With(zerr.With(
				zerr.Wrap(domain.ErrDanglingReference, u.String()+" depends on undeclared "+target.String()),
				"from", string(u)), "to", string(target))
		}

		m := node.Edges[target]
		ok, err := m.Evaluate(w.env)
		if err != nil {
			return zerr.With(zerr.With(zerr.With(
				zerr.Wrap(err, "failed to evaluate marker of "+u.String()+" -> "+target.String()),
				"from", string(u)), "to", string(target)), "expression", m.Source())
		}
		if !ok {
			w.pruned = append(w.pruned, domain.Edge{From: u, To: target, Marker: m})
			continue
		}

		active = append(active, target)
		switch w.state[target] {
		case visiting:
			return w.cycleError(target)
		case unvisited:
			if err := w.visit(target); err != nil {
				return err
			}
		}
	}

	w.deps[u] = active
	w.state[u] = visited
	w.path = w.path[:len(w.path)-1]
	return nil
}

// cycleError reports the cycle closed by an edge back to target.
func (w *walk) cycleError(target domain.Key) error {
	start := slices.Index(w.path, target)
	cycle := slices.Clone(w.path[start:])
	cycle = append(cycle, target)

	names := make([]string, len(cycle))
	for i, k := range cycle {
		names[i] = k.String()
	}
	rendered := strings.Join(names, " -> ")

	return zerr.With(zerr.With(
		zerr.Wrap(domain.ErrCycle, "dependency cycle "+rendered),
		"cycle", rendered), "path", cycle)
}

func (b *Builder) checkVariants(deps map[domain.Key][]domain.Key) ([]string, error) {
	byBase := make(map[string][]domain.Key)
	for k := range deps {
		switch k.Kind() {
		case domain.KindConcrete, domain.KindVariant:
			byBase[k.Base()] = append(byBase[k.Base()], k)
		}
	}

	bases := make([]string, 0, len(byBase))
	for base, keys := range byBase {
		if len(keys) > 1 {
			bases = append(bases, base)
		}
	}
	slices.Sort(bases)

	var warnings []string
	for _, base := range bases {
		keys := byBase[base]
		slices.Sort(keys)
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = string(k)
		}
		msg := "competing variants of " + base + " are active: " + strings.Join(names, ", ")
		if !b.opts.AllowCompetingVariants {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrCompetingVariants, msg), "base", base), "keys", keys)
		}
		warnings = append(warnings, msg)
	}
	return warnings, nil
}

func dedupe(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	out := s[:0]
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
