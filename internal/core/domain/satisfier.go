package domain

// SatisfierKind tags the form of a Satisfier.
type SatisfierKind int

const (
	// SatisfierIndirect resolves name and version against a source.
	SatisfierIndirect SatisfierKind = iota + 1
	// SatisfierDirect points at an artifact URL or file.
	SatisfierDirect
	// SatisfierLocal points at a source directory.
	SatisfierLocal
	// SatisfierEditable points at a source directory installed in editable mode.
	SatisfierEditable
)

func (k SatisfierKind) String() string {
	switch k {
	case SatisfierIndirect:
		return "indirect"
	case SatisfierDirect:
		return "direct"
	case SatisfierLocal:
		return "local"
	case SatisfierEditable:
		return "editable"
	default:
		return "unknown"
	}
}

// EcosystemPython is the satisfier block name for Python packages.
const EcosystemPython = "python"

// Satisfier describes how a node is installed. Which fields are set depends on Kind:
// Path for local and editable, URL for direct, SourceID and Version for indirect.
type Satisfier struct {
	Kind      SatisfierKind
	Ecosystem string
	Name      string

	Path     string
	URL      string
	SourceID string
	Version  string
}
