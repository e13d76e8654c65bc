package domain

// PathKind classifies a filesystem path.
type PathKind int

const (
	// PathMissing is a path that does not exist.
	PathMissing PathKind = iota
	// PathFile is a regular file or any other non-directory.
	PathFile
	// PathDir is a directory.
	PathDir
)

func (k PathKind) String() string {
	switch k {
	case PathFile:
		return "file"
	case PathDir:
		return "directory"
	default:
		return "missing"
	}
}
