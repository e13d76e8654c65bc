package domain

// SourceKind is the type of a distribution source.
type SourceKind string

const (
	// SourceSimple is a PEP 503 simple repository index.
	SourceSimple SourceKind = "simple"
	// SourceFindLinks is an HTML page of direct artifact links.
	SourceFindLinks SourceKind = "find-links"
)

// Reserved reports whether the kind is one of the built-in source kinds.
func (k SourceKind) Reserved() bool {
	return k == SourceSimple || k == SourceFindLinks
}

// Source is a named distribution source declared at document scope.
type Source struct {
	ID   string
	Kind SourceKind
	URL  string
}

// EffectiveSource is a source after applying caller overrides.
type EffectiveSource struct {
	ID         string
	Kind       SourceKind
	URL        string
	Overridden bool
}
