package ports

import (
	"context"

	"go.trai.ch/lockres/internal/core/domain"
)

// Installer installs a resolved node.
//
//go:generate go run go.uber.org/mock/mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks
type Installer interface {
	// Install installs spec. Failures wrap domain.ErrInstallFailed.
	Install(ctx context.Context, spec domain.InstallSpec) error
}
