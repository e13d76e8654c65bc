package graph_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/lockres/internal/engine/graph"
	"go.trai.ch/zerr"
)

// newDocument builds a document from node -> target -> marker source.
// An empty marker source is an unconditional edge.
func newDocument(t *testing.T, nodes map[string]map[string]string) *domain.Document {
	t.Helper()
	doc := &domain.Document{Nodes: make(map[domain.Key]*domain.Node)}
	for key, edges := range nodes {
		node := &domain.Node{Key: domain.Key(key), Edges: make(map[domain.Key]*marker.Marker)}
		for target, src := range edges {
			if src == "" {
				node.Edges[domain.Key(target)] = nil
				continue
			}
			m, err := marker.Parse(src)
			require.NoError(t, err)
			node.Edges[domain.Key(target)] = m
		}
		doc.Nodes[domain.Key(key)] = node
	}
	return doc
}

var linux = marker.Environment{"sys_platform": "linux", "python_version": "3.11"}

func TestBuild_Diamond(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":  {"a": "", "b": ""},
		"a": {"c": ""},
		"b": {"c": ""},
		"c": {},
	})

	g, err := graph.Build(doc, domain.RootKey, linux)
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []domain.Key{"c", "a", "b", ""}, g.Order)

	count := 0
	for k := range g.Walk() {
		if k == "c" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, []domain.Key{"a", "b"}, g.Dependents("c"))
}

func TestBuild_PrunesInactiveEdges(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":         {"colorama": "sys_platform == 'win32'", "requests": ""},
		"colorama": {"winonly": ""},
		"winonly":  {},
		"requests": {"urllib3": "python_version >= '3.8'", "legacy": "python_version < '3'"},
		"urllib3":  {},
		"legacy":   {},
	})

	g, err := graph.Build(doc, domain.RootKey, linux)
	require.NoError(t, err)

	assert.Equal(t, []domain.Key{"", "requests", "urllib3"}, g.Keys())
	assert.False(t, g.Contains("colorama"))
	assert.False(t, g.Contains("winonly"))
	assert.False(t, g.Contains("legacy"))

	require.Len(t, g.Pruned, 2)
	assert.Equal(t, domain.Key("colorama"), g.Pruned[0].To)
	assert.Equal(t, "sys_platform == 'win32'", g.Pruned[0].Marker.Source())
	assert.Equal(t, domain.Edge{From: "requests", To: "legacy", Marker: g.Pruned[1].Marker}, g.Pruned[1])
}

func TestBuild_PrunedEdgeDoesNotHideActivePath(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":  {"a": "sys_platform == 'win32'", "d": ""},
		"d": {"a": ""},
		"a": {},
	})

	g, err := graph.Build(doc, domain.RootKey, linux)
	require.NoError(t, err)
	assert.True(t, g.Contains("a"))
	assert.Equal(t, []domain.Key{"d"}, g.Dependents("a"))
}

func TestBuild_Cycle(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":  {"a": ""},
		"a": {"b": ""},
		"b": {"a": ""},
	})

	_, err := graph.Build(doc, domain.RootKey, linux)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCycle)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, []domain.Key{"a", "b", "a"}, zErr.Metadata()["path"])
	assert.Equal(t, "a -> b -> a", zErr.Metadata()["cycle"])
}

func TestBuild_SelfCycle(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"a": {"a": ""},
	})

	_, err := graph.Build(doc, "a", linux)
	require.Error(t, err)
	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, []domain.Key{"a", "a"}, zErr.Metadata()["path"])
}

func TestBuild_InactiveCycleIsIgnored(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":  {"a": ""},
		"a": {"b": ""},
		"b": {"a": "sys_platform == 'win32'"},
	})

	g, err := graph.Build(doc, domain.RootKey, linux)
	require.NoError(t, err)
	assert.Equal(t, []domain.Key{"b", "a", ""}, g.Order)
}

func TestBuild_DanglingReference(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":  {"a": ""},
		"a": {"z": "sys_platform == 'win32'"},
	})

	_, err := graph.Build(doc, domain.RootKey, linux)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDanglingReference)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "a", zErr.Metadata()["from"])
	assert.Equal(t, "z", zErr.Metadata()["to"])
}

func TestBuild_UnknownRoot(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{"a": {}})

	_, err := graph.Build(doc, "[docs]", linux)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownRoot)
}

func TestBuild_MarkerEvaluationError(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":  {"a": "platform_release == '6.1'"},
		"a": {},
	})

	_, err := graph.Build(doc, domain.RootKey, linux)
	require.Error(t, err)
	assert.ErrorIs(t, err, marker.ErrEvaluation)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "", zErr.Metadata()["from"])
	assert.Equal(t, "a", zErr.Metadata()["to"])
}

func TestBuild_CompetingVariants(t *testing.T) {
	nodes := map[string]map[string]string{
		"":        {"numpy;1": "", "numpy;2": "python_version >= '3.9'"},
		"numpy;1": {},
		"numpy;2": {},
	}

	_, err := graph.Build(newDocument(t, nodes), domain.RootKey, linux)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompetingVariants)
	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "numpy", zErr.Metadata()["base"])

	g, err := graph.NewBuilder(graph.Options{AllowCompetingVariants: true}).Build(newDocument(t, nodes), domain.RootKey, linux)
	require.NoError(t, err)
	require.Len(t, g.Warnings, 1)
	assert.Contains(t, g.Warnings[0], "numpy;1, numpy;2")
}

func TestBuild_ExclusiveVariants(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":        {"numpy;1": "python_version < '3.9'", "numpy;2": "python_version >= '3.9'"},
		"numpy;1": {},
		"numpy;2": {},
	})

	g, err := graph.Build(doc, domain.RootKey, linux)
	require.NoError(t, err)
	assert.True(t, g.Contains("numpy;2"))
	assert.False(t, g.Contains("numpy;1"))
	assert.Empty(t, g.Warnings)
}

func TestBuild_MetaExpansionIsAssociative(t *testing.T) {
	nodes := map[string]map[string]string{
		"":       {"app": "", "shared": ""},
		"[test]": {"pytest": "", "shared": ""},
		"app":    {"lib": ""},
		"pytest": {"lib": "", "pluggy": "python_version >= '3.8'"},
		"shared": {},
		"lib":    {},
		"pluggy": {},
	}
	doc := newDocument(t, nodes)

	base, err := graph.Build(doc, domain.RootKey, linux)
	require.NoError(t, err)
	test, err := graph.Build(doc, domain.ExtraKey("test"), linux)
	require.NoError(t, err)
	union := domain.Union(base, test)

	nodes["[all]"] = map[string]string{"": "", "[test]": ""}
	synthetic, err := graph.Build(newDocument(t, nodes), "[all]", linux)
	require.NoError(t, err)

	expectedKeys := slices.DeleteFunc(synthetic.Keys(), func(k domain.Key) bool { return k == "[all]" })
	expectedEdges := slices.DeleteFunc(synthetic.Edges(), func(e domain.Edge) bool { return e.From == "[all]" })
	assert.Equal(t, expectedKeys, union.Keys())
	assert.Equal(t, expectedEdges, union.Edges())

	reversed := domain.Union(test, base)
	assert.Equal(t, union.Keys(), reversed.Keys())
	assert.Equal(t, union.Edges(), reversed.Edges())
	assert.Equal(t, union.Order, reversed.Order)
}

func TestBuildRoots(t *testing.T) {
	doc := newDocument(t, map[string]map[string]string{
		"":        {"numpy;1": ""},
		"[gpu]":   {"numpy;2": ""},
		"numpy;1": {},
		"numpy;2": {},
	})

	b := graph.NewBuilder(graph.Options{})
	g, err := b.BuildRoots(doc, nil, linux)
	require.NoError(t, err)
	assert.Equal(t, domain.RootKey, g.Root)

	_, err = b.BuildRoots(doc, []domain.Key{"", "[gpu]"}, linux)
	assert.ErrorIs(t, err, domain.ErrCompetingVariants)
}
