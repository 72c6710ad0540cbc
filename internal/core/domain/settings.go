package domain

import "time"

// Settings is the validated runtime configuration.
type Settings struct {
	// Root is the directory the configuration was discovered in.
	Root string

	// KeepGenerated persists generated target-language sources next to the artifacts.
	KeepGenerated bool
	// Namespace prefixes the identifiers of compiled scripts.
	Namespace string
	// SourceExtension marks content nodes that are use-object sources.
	SourceExtension string
	// KnownExpressionOptions are passed to the transpiler as recognised expression options.
	KnownExpressionOptions []string

	// ToolchainVersion is stored in the version marker. A change wipes the scratch namespace.
	ToolchainVersion string
	// ToolchainCommand is the external compiler invocation.
	ToolchainCommand []string
	// TranspilerCommand is the external template transpiler invocation.
	TranspilerCommand []string

	// ResolutionCacheSize bounds the resolution cache. Zero or less disables it.
	ResolutionCacheSize int
	// CapabilityFilter is matched against the capability header of deployment events.
	CapabilityFilter string

	// ContentRoot is the directory backing the filesystem content repository.
	ContentRoot string
	// SearchPaths are the content roots relative names are resolved under.
	SearchPaths []string
	// DatabaseURL selects the Postgres content repository instead of the filesystem one.
	DatabaseURL string

	// ArtifactsRoot is the directory backing the artifact store.
	ArtifactsRoot string

	// RedisAddr enables the deployment event bus.
	RedisAddr string
	// EventsChannel is the pub/sub channel of deployment events.
	EventsChannel string

	// WatchDebounce is the window in which content changes are coalesced.
	WatchDebounce time.Duration
}

// DefaultSettings returns the settings used when no configuration file exists.
func DefaultSettings() Settings {
	return Settings{
		Namespace:           DefaultNamespace,
		SourceExtension:     DefaultSourceExtension,
		ResolutionCacheSize: DefaultResolutionCacheSize,
		CapabilityFilter:    DefaultCapabilityFilter,
		SearchPaths:         DefaultSearchPaths(),
		ArtifactsRoot:       DefaultArtifactsPath(),
		EventsChannel:       DefaultEventsChannel,
		WatchDebounce:       DefaultWatchDebounce,
	}
}
