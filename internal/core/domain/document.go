package domain

import (
	"slices"

	"go.trai.ch/lockres/internal/core/marker"
)

// Node is a dependency node. Edges maps each target key to its marker; a nil
// marker means the edge is unconditional. Satisfier is nil for meta-dependencies.
type Node struct {
	Key       Key
	Edges     map[Key]*marker.Marker
	Satisfier *Satisfier
}

// Targets returns the edge target keys in lexicographic order.
func (n *Node) Targets() []Key {
	keys := make([]Key, 0, len(n.Edges))
	for k := range n.Edges {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Document is a parsed lock document. It is never mutated after parsing.
type Document struct {
	Nodes       map[Key]*Node
	Sources     map[string]Source
	Validations map[Key]ValidationEntry
	// Fingerprint identifies the raw bytes the document was parsed from.
	Fingerprint string
}

// Node returns the node for key.
func (d *Document) Node(key Key) (*Node, bool) {
	n, ok := d.Nodes[key]
	return n, ok
}

// Keys returns every dependency key in lexicographic order.
func (d *Document) Keys() []Key {
	keys := make([]Key, 0, len(d.Nodes))
	for k := range d.Nodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Source returns the declared source with the given id.
func (d *Document) Source(id string) (Source, bool) {
	s, ok := d.Sources[id]
	return s, ok
}

// Validation returns the validation entry for key.
func (d *Document) Validation(key Key) (ValidationEntry, bool) {
	v, ok := d.Validations[key]
	return v, ok
}
