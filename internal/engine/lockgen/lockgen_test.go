package lockgen_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockres/internal/adapters/lockfile"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/lockres/internal/engine/graph"
	"go.trai.ch/lockres/internal/engine/lockgen"
)

func openFixture(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "requirements.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestGenerate_Golden(t *testing.T) {
	doc, err := lockgen.Generate(openFixture(t), "")
	require.NoError(t, err)

	out, err := lockfile.Marshal(doc)
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "pyproject.lock", out)
}

func TestGenerate_ProducesLoadableDocument(t *testing.T) {
	doc, err := lockgen.Generate(openFixture(t), "https://mirror.example/simple")
	require.NoError(t, err)

	raw, err := lockfile.Marshal(doc)
	require.NoError(t, err)
	parsed, err := lockfile.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example/simple", parsed.Sources[lockgen.SourceID].URL)

	linux := marker.Environment{marker.SysPlatform: "linux"}
	g, err := graph.Build(parsed, domain.RootKey, linux)
	require.NoError(t, err)
	assert.False(t, g.Contains("colorama"))
	assert.True(t, g.Contains("certifi"))
	assert.False(t, g.Contains("my-tool"))

	win := marker.Environment{marker.SysPlatform: "win32"}
	g, err = graph.Build(parsed, domain.RootKey, win)
	require.NoError(t, err)
	assert.True(t, g.Contains("colorama"))
}

func TestParse_Candidates(t *testing.T) {
	candidates, err := lockgen.Parse(openFixture(t))
	require.NoError(t, err)
	require.Len(t, candidates, 6)

	byKey := map[domain.Key]lockgen.Candidate{}
	for _, c := range candidates {
		byKey[c.Key()] = c
	}

	certifi := byKey["certifi"]
	assert.Equal(t, "2023.7.22", certifi.Version)
	assert.Len(t, certifi.Hashes, 2)
	assert.Equal(t, []domain.Key{"requests"}, certifi.Parents)

	requests := byKey["requests"]
	assert.Equal(t, []domain.Key{domain.RootKey, "my-tool"}, requests.Parents)

	colorama := byKey["colorama"]
	require.NotNil(t, colorama.Marker)
	assert.Equal(t, `sys_platform == "win32"`, colorama.Marker.Source())
	assert.Equal(t, "md5", colorama.Hashes[1].Algorithm)

	typing := byKey["typing-extensions"]
	assert.Equal(t, "Typing_Extensions", typing.Name)
	assert.Equal(t, []domain.Key{domain.RootKey}, typing.Parents)
	assert.Empty(t, typing.Hashes)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unpinned", input: "requests>=2.0\n"},
		{name: "bad hash", input: "requests==2.31.0 --hash=sha256\n"},
		{name: "duplicate", input: "requests==2.31.0\nRequests==2.31.0\n"},
		{name: "bad name", input: "!bad==1.0\n"},
		{name: "bad marker", input: "requests==2.31.0 ; python_version <\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lockgen.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}

	_, err := lockgen.Parse(strings.NewReader("requests>=2.0\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequirement)

	_, err = lockgen.Parse(strings.NewReader("!bad==1.0\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequirement)
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "zope-interface", domain.CanonicalName("Zope.Interface"))
	assert.Equal(t, "typing-extensions", domain.CanonicalName("typing__extensions"))
	assert.Equal(t, "pyyaml", domain.CanonicalName("PyYAML"))
}

func TestParse_InlineViaAndExtras(t *testing.T) {
	input := "uvicorn[standard]==0.23.2  # via -r requirements.in, fastapi\n"
	candidates, err := lockgen.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "uvicorn", candidates[0].Name)
	assert.Equal(t, []domain.Key{domain.RootKey, "fastapi"}, candidates[0].Parents)
}
