package ports

import "go.trai.ch/stencil/internal/core/domain"

// ConfigLoader defines the interface for loading the runtime configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers the configuration file from the given working directory and returns the settings.
	// Defaults are returned when no file exists.
	Load(cwd string) (domain.Settings, error)

	// DiscoverRoot walks up from cwd to find the directory containing stencil.yaml.
	DiscoverRoot(cwd string) (string, error)
}
