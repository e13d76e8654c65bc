package lockgen

import (
	"io"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
)

const (
	// SourceID is the id of the single source a generated document declares.
	SourceID = "pypi"
	// DefaultIndexURL is the index generated documents point at by default.
	DefaultIndexURL = "https://pypi.org/simple"
)

// Build creates a lock document from candidates. Every candidate becomes an
// indirect node against a simple source at indexURL. Parents that are not
// candidates themselves become meta nodes.
func Build(candidates []Candidate, indexURL string) *domain.Document {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	doc := &domain.Document{
		Nodes: make(map[domain.Key]*domain.Node, len(candidates)+1),
		Sources: map[string]domain.Source{
			SourceID: {ID: SourceID, Kind: domain.SourceSimple, URL: indexURL},
		},
		Validations: make(map[domain.Key]domain.ValidationEntry),
	}

	for _, c := range candidates {
		key := c.Key()
		doc.Nodes[key] = &domain.Node{
			Key:   key,
			Edges: map[domain.Key]*marker.Marker{},
			Satisfier: &domain.Satisfier{
				Kind:      domain.SatisfierIndirect,
				Ecosystem: domain.EcosystemPython,
				Name:      c.Name,
				SourceID:  SourceID,
				Version:   c.Version,
			},
		}
		if len(c.Hashes) > 0 {
			doc.Validations[key] = append(domain.ValidationEntry(nil), c.Hashes...)
		}
	}

	for _, c := range candidates {
		key := c.Key()
		for _, parent := range c.Parents {
			node, ok := doc.Nodes[parent]
			if !ok {
				node = &domain.Node{Key: parent, Edges: map[domain.Key]*marker.Marker{}}
				doc.Nodes[parent] = node
			}
			node.Edges[key] = c.Marker
		}
	}
	return doc
}

// Generate parses compiled requirements from r and builds a document.
func Generate(r io.Reader, indexURL string) (*domain.Document, error) {
	candidates, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return Build(candidates, indexURL), nil
}
