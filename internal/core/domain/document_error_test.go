package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestDocumentError(t *testing.T) {
	var derr domain.DocumentError
	assert.NoError(t, derr.ErrOrNil())

	derr.Add("dependencies.Foo", domain.ErrInvalidKey)
	derr.Add("sources.pypi.url", zerr.Wrap(domain.ErrInvalidSource, "missing url"))

	err := derr.ErrOrNil()
	require.Error(t, err)
	assert.Equal(t, 2, derr.Len())
	assert.True(t, errors.Is(err, domain.ErrInvalidKey))
	assert.True(t, errors.Is(err, domain.ErrInvalidSource))
	assert.False(t, errors.Is(err, domain.ErrCycle))
	assert.Contains(t, err.Error(), "2 violations")
	assert.Contains(t, err.Error(), "sources.pypi.url: missing url: invalid source")

	var target *domain.DocumentError
	assert.True(t, errors.As(err, &target))
}

func TestDocumentError_Single(t *testing.T) {
	derr := &domain.DocumentError{}
	derr.Add("", domain.ErrMalformedDocument)
	assert.Equal(t, "invalid lock document: malformed lock document", derr.Error())
}
