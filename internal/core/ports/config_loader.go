package ports

import "go.trai.ch/lockres/internal/core/domain"

// ConfigLoader defines the interface for loading the session configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration at path layered over the defaults.
	// An empty path looks for the default file in the working directory and
	// falls back to the defaults when it is absent.
	Load(path string) (*domain.SessionConfig, error)
}
