package domain

// InstallSpec is the concrete installable form of a node.
type InstallSpec struct {
	Key  Key
	Name string
	Kind SatisfierKind

	// Path is the resolved directory of a local or editable source, or the
	// resolved file of a path-shaped direct reference.
	Path string
	// URL is the artifact URL of a direct reference, or of an indirect reference
	// once the index has been consulted. Empty for unresolved indirect references.
	URL string
	// Source and Version are set for indirect references.
	Source  *EffectiveSource
	Version string

	// Fingerprint is a content hash of a local directory, when requested.
	Fingerprint string
	// Artifact is the local file that was downloaded and validated for install.
	Artifact string
}

// NeedsDownload reports whether the spec refers to an artifact that must be fetched.
func (s InstallSpec) NeedsDownload() bool {
	return s.Kind == SatisfierDirect || s.Kind == SatisfierIndirect
}

// Target returns what the installer is pointed at.
func (s InstallSpec) Target() string {
	switch {
	case s.Artifact != "":
		return s.Artifact
	case s.Path != "":
		return s.Path
	default:
		return s.URL
	}
}
