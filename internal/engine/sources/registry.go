// Package sources resolves source ids to effective sources under caller overrides.
package sources

import (
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

// Registry looks up the sources declared by a document. Overrides replace only
// the url of a source; its kind always comes from the document.
type Registry struct {
	doc       *domain.Document
	overrides map[string]string
}

// NewRegistry creates a Registry over doc with the given overrides.
// The override map is read, never written.
func NewRegistry(doc *domain.Document, overrides map[string]string) *Registry {
	return &Registry{doc: doc, overrides: overrides}
}

// Resolve returns the effective source for id.
func (r *Registry) Resolve(id string) (domain.EffectiveSource, error) {
	return Resolve(r.doc, id, r.overrides)
}

// Resolve returns the effective source for id in doc, applying overrides.
func Resolve(doc *domain.Document, id string, overrides map[string]string) (domain.EffectiveSource, error) {
	src, ok := doc.Source(id)
	if !ok {
		return domain.EffectiveSource{}, zerr.With(
			zerr.Wrap(domain.ErrUnknownSource, "source "+id+" is not declared"),
			"source_id", id,
		)
	}

	eff := domain.EffectiveSource{
		ID:   id,
		Kind: src.Kind,
		URL:  src.URL,
	}
	if url, ok := overrides[id]; ok && url != "" {
		eff.URL = url
		eff.Overridden = true
	}
	return eff, nil
}
