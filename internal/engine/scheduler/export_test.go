package scheduler

import "go.trai.ch/lockres/internal/core/domain"

// ArtifactName exposes artifactName for tests.
func ArtifactName(spec domain.InstallSpec) string {
	return artifactName(spec)
}
