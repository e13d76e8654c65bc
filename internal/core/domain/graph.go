package domain

import (
	"iter"
	"maps"
	"slices"

	"go.trai.ch/lockres/internal/core/marker"
)

// Edge is a directed dependency edge.
type Edge struct {
	From   Key
	To     Key
	Marker *marker.Marker
}

// ResolvedGraph is the closure of a root key with inactive edges pruned.
// It holds keys into a Document and never copies nodes.
type ResolvedGraph struct {
	Root     Key
	Order    []Key
	Pruned   []Edge
	Warnings []string

	deps       map[Key][]Key
	dependents map[Key][]Key
}

// NewResolvedGraph creates a graph from the active adjacency of each reachable key.
// Every key reachable from root must appear in deps, with an empty slice for leaves.
func NewResolvedGraph(root Key, deps map[Key][]Key, pruned []Edge, warnings []string) *ResolvedGraph {
	g := &ResolvedGraph{
		Root:       root,
		Pruned:     pruned,
		Warnings:   warnings,
		deps:       make(map[Key][]Key, len(deps)),
		dependents: make(map[Key][]Key, len(deps)),
	}
	for k, targets := range deps {
		sorted := slices.Clone(targets)
		slices.Sort(sorted)
		g.deps[k] = slices.Compact(sorted)
		if _, ok := g.dependents[k]; !ok {
			g.dependents[k] = nil
		}
		for _, t := range g.deps[k] {
			g.dependents[t] = append(g.dependents[t], k)
		}
	}
	for k := range g.dependents {
		slices.Sort(g.dependents[k])
	}
	g.Order = TopologicalOrder(g.deps)
	return g
}

// Len returns the number of nodes in the graph.
func (g *ResolvedGraph) Len() int {
	return len(g.deps)
}

// Contains reports whether key is part of the graph.
func (g *ResolvedGraph) Contains(key Key) bool {
	_, ok := g.deps[key]
	return ok
}

// Keys returns the node set in lexicographic order.
func (g *ResolvedGraph) Keys() []Key {
	return slices.Sorted(maps.Keys(g.deps))
}

// Walk yields keys in install order, dependencies first.
func (g *ResolvedGraph) Walk() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for _, k := range g.Order {
			if !yield(k) {
				return
			}
		}
	}
}

// Deps returns the active dependencies of key.
func (g *ResolvedGraph) Deps(key Key) []Key {
	return g.deps[key]
}

// Dependents returns the keys that depend on key.
func (g *ResolvedGraph) Dependents(key Key) []Key {
	return g.dependents[key]
}

// DepsMap returns a copy of the active adjacency of every node.
func (g *ResolvedGraph) DepsMap() map[Key][]Key {
	out := make(map[Key][]Key, len(g.deps))
	for k, v := range g.deps {
		out[k] = slices.Clone(v)
	}
	return out
}

// Edges returns every active edge, ordered by source then target.
func (g *ResolvedGraph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.Keys() {
		for _, to := range g.deps[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Union merges the node and edge sets of graphs. The result is rooted at the
// root of the first graph.
func Union(graphs ...*ResolvedGraph) *ResolvedGraph {
	if len(graphs) == 0 {
		return NewResolvedGraph(RootKey, nil, nil, nil)
	}
	deps := make(map[Key][]Key)
	var pruned []Edge
	var warnings []string
	for _, g := range graphs {
		for k, targets := range g.deps {
			deps[k] = append(deps[k], targets...)
		}
		pruned = append(pruned, g.Pruned...)
		warnings = append(warnings, g.Warnings...)
	}
	return NewResolvedGraph(graphs[0].Root, deps, pruned, warnings)
}

// TopologicalOrder orders the keys of deps so that every key follows its
// dependencies. Ties are broken by lexicographic key order. deps must be acyclic.
func TopologicalOrder(deps map[Key][]Key) []Key {
	remaining := make(map[Key]int, len(deps))
	dependents := make(map[Key][]Key, len(deps))
	for k, targets := range deps {
		remaining[k] += len(targets)
		for _, t := range targets {
			if _, ok := remaining[t]; !ok {
				remaining[t] = 0
			}
			dependents[t] = append(dependents[t], k)
		}
	}

	var ready []Key
	for k, n := range remaining {
		if n == 0 {
			ready = append(ready, k)
		}
	}
	slices.Sort(ready)

	order := make([]Key, 0, len(remaining))
	for len(ready) > 0 {
		k := ready[0]
		ready = ready[1:]
		order = append(order, k)
		for _, d := range dependents[k] {
			remaining[d]--
			if remaining[d] == 0 {
				i, _ := slices.BinarySearch(ready, d)
				ready = slices.Insert(ready, i, d)
			}
		}
	}
	return order
}
