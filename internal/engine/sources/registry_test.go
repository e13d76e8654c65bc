package sources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/engine/sources"
	"go.trai.ch/zerr"
)

func testDocument() *domain.Document {
	return &domain.Document{
		Sources: map[string]domain.Source{
			"pypi":   {ID: "pypi", Kind: domain.SourceSimple, URL: "https://pypi.org/simple"},
			"wheels": {ID: "wheels", Kind: domain.SourceFindLinks, URL: "https://wheels.example/"},
		},
	}
}

func TestResolve_Override(t *testing.T) {
	eff, err := sources.Resolve(testDocument(), "pypi", map[string]string{"pypi": "https://mirror.example/simple"})
	require.NoError(t, err)

	assert.Equal(t, "https://mirror.example/simple", eff.URL)
	assert.Equal(t, domain.SourceSimple, eff.Kind)
	assert.True(t, eff.Overridden)
}

func TestResolve_NoOverride(t *testing.T) {
	reg := sources.NewRegistry(testDocument(), map[string]string{"pypi": "https://mirror.example/simple"})

	eff, err := reg.Resolve("wheels")
	require.NoError(t, err)
	assert.Equal(t, domain.EffectiveSource{
		ID: "wheels", Kind: domain.SourceFindLinks, URL: "https://wheels.example/",
	}, eff)
}

func TestResolve_DoesNotMutateDocument(t *testing.T) {
	doc := testDocument()
	_, err := sources.Resolve(doc, "pypi", map[string]string{"pypi": "https://mirror.example/simple"})
	require.NoError(t, err)
	assert.Equal(t, "https://pypi.org/simple", doc.Sources["pypi"].URL)
}

func TestResolve_UnknownSource(t *testing.T) {
	_, err := sources.Resolve(testDocument(), "private", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownSource)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "private", zErr.Metadata()["source_id"])
}
