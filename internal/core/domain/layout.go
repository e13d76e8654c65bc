package domain

import "path/filepath"

const (
	// StateDirName is the name of the per-project state directory.
	StateDirName = ".lockres"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// IndexDirName is the name of the index lookup cache directory.
	IndexDirName = "index"

	// ArtifactDirName is the name of the downloaded artifact directory.
	ArtifactDirName = "artifacts"

	// InstallStateFileName is the name of the file recording installed nodes.
	InstallStateFileName = "installs.json"

	// ConfigFileName is the name of the session configuration file.
	ConfigFileName = "lockres.yaml"

	// LockFileName is the default lock document name.
	LockFileName = "pyproject.lock.json"

	// LockFileSuffix is the suffix every lock document carries.
	LockFileSuffix = ".lock.json"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultIndexCachePath returns the default path for cached index lookups.
// It joins .lockres, cache, and index.
func DefaultIndexCachePath() string {
	return filepath.Join(StateDirName, CacheDirName, IndexDirName)
}

// DefaultArtifactPath returns the default path for downloaded artifacts.
// It joins .lockres, cache, and artifacts.
func DefaultArtifactPath() string {
	return filepath.Join(StateDirName, CacheDirName, ArtifactDirName)
}

// DefaultInstallStatePath returns the default path of the install record store.
// It joins .lockres and installs.json.
func DefaultInstallStatePath() string {
	return filepath.Join(StateDirName, InstallStateFileName)
}
