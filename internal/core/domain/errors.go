package domain

import "go.trai.ch/zerr"

// Document errors. Reported inside a DocumentError.
var (
	// ErrMalformedDocument is returned when the raw text is not a JSON object of the expected shape.
	ErrMalformedDocument = zerr.New("malformed lock document")

	// ErrInvalidKey is returned when a dependency key matches none of the key patterns.
	ErrInvalidKey = zerr.New("invalid dependency key")

	// ErrDuplicateKey is returned when a JSON object repeats a key.
	ErrDuplicateKey = zerr.New("duplicate key")

	// ErrInvalidMarker is returned when an edge marker is neither null nor a valid expression.
	ErrInvalidMarker = zerr.New("invalid marker")

	// ErrInvalidSatisfier is returned when a satisfier block does not match exactly one form.
	ErrInvalidSatisfier = zerr.New("invalid satisfier")

	// ErrInvalidSource is returned when a sources entry lacks a type or url.
	ErrInvalidSource = zerr.New("invalid source")

	// ErrDanglingSource is returned when an indirect satisfier names an undeclared source.
	ErrDanglingSource = zerr.New("satisfier references unknown source")

	// ErrDanglingValidation is returned when a validations key names an undeclared dependency.
	ErrDanglingValidation = zerr.New("validation references unknown dependency")

	// ErrInvalidValidation is returned when a validation declaration is not "algorithm:digest".
	ErrInvalidValidation = zerr.New("invalid validation declaration")
)

// Graph errors.
var (
	// ErrUnknownRoot is returned when the requested root key is not in the document.
	ErrUnknownRoot = zerr.New("unknown root")

	// ErrDanglingReference is returned when an edge targets a key that is not in the document.
	ErrDanglingReference = zerr.New("dangling reference")

	// ErrCycle is returned when the dependency graph contains a cycle.
	ErrCycle = zerr.New("cycle detected")

	// ErrCompetingVariants is returned when several variants of one base name are active at once.
	ErrCompetingVariants = zerr.New("competing variants")
)

// Resolver errors. Reported per node.
var (
	// ErrUnknownKey is returned when a key is not present in the document.
	ErrUnknownKey = zerr.New("unknown dependency key")

	// ErrNoSatisfier is returned when a satisfier is requested for a meta-dependency.
	ErrNoSatisfier = zerr.New("node has no satisfier")

	// ErrPathNotFound is returned when a resolved path does not exist.
	ErrPathNotFound = zerr.New("path not found")

	// ErrInvalidSourceKind is returned when a local or editable path is not a directory.
	ErrInvalidSourceKind = zerr.New("local source must be a directory")

	// ErrInvalidDirectTarget is returned when a direct reference points at a directory.
	ErrInvalidDirectTarget = zerr.New("direct reference must not be a directory")

	// ErrUnknownSource is returned when a source id is not declared in the document.
	ErrUnknownSource = zerr.New("unknown source")
)

// Validation errors.
var (
	// ErrUnsupportedAlgorithm is returned when a declaration names an unknown digest algorithm.
	ErrUnsupportedAlgorithm = zerr.New("unsupported digest algorithm")

	// ErrDigestMismatch is returned when no declared digest matches an artifact.
	ErrDigestMismatch = zerr.New("artifact digest mismatch")
)

// Installer collaborator errors. Propagated without interpretation.
var (
	// ErrNotFound is returned when an index has no artifact for a name and version.
	ErrNotFound = zerr.New("artifact not found")

	// ErrNetwork is returned when an index or download request fails in transport.
	ErrNetwork = zerr.New("network error")

	// ErrInstallFailed is returned when the installer rejects an install spec.
	ErrInstallFailed = zerr.New("install failed")
)

// Session errors.
var (
	// ErrInvalidConfig is returned when the session configuration is invalid.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrDependencyBlocked is returned for a node whose dependency failed to install.
	ErrDependencyBlocked = zerr.New("blocked by failed dependency")

	// ErrInstallExecutionFailed is returned when one or more nodes failed to install.
	ErrInstallExecutionFailed = zerr.New("install execution failed")

	// ErrResolutionFailed is returned when one or more nodes failed to resolve.
	ErrResolutionFailed = zerr.New("resolution failed")
)

// Lock generation errors.
var (
	// ErrInvalidRequirement is returned for a compiled requirement line that cannot be parsed.
	ErrInvalidRequirement = zerr.New("invalid requirement")
)
