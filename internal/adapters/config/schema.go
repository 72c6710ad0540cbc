package config

// Stencilfile represents the structure of the stencil.yaml configuration file.
type Stencilfile struct {
	Version    string        `yaml:"version"`
	Engine     EngineDTO     `yaml:"engine"`
	Toolchain  ToolchainDTO  `yaml:"toolchain"`
	Resolution ResolutionDTO `yaml:"resolution"`
	Content    ContentDTO    `yaml:"content"`
	Artifacts  ArtifactsDTO  `yaml:"artifacts"`
	Events     EventsDTO     `yaml:"events"`
	Watch      WatchDTO      `yaml:"watch"`
}

// EngineDTO configures naming and generated source handling.
type EngineDTO struct {
	KeepGenerated          bool     `yaml:"keepGenerated"`
	Namespace              string   `yaml:"namespace"`
	SourceExtension        string   `yaml:"sourceExtension"`
	KnownExpressionOptions []string `yaml:"knownExpressionOptions"`
}

// ToolchainDTO configures the external compiler and transpiler.
type ToolchainDTO struct {
	Version    string   `yaml:"version"`
	Command    []string `yaml:"command"`
	Transpiler []string `yaml:"transpiler"`
}

// ResolutionDTO configures the resolution cache.
type ResolutionDTO struct {
	CacheSize        *int   `yaml:"cacheSize"`
	CapabilityFilter string `yaml:"capabilityFilter"`
}

// ContentDTO selects and configures the content repository.
type ContentDTO struct {
	Root        string   `yaml:"root"`
	SearchPaths []string `yaml:"searchPaths"`
	Database    string   `yaml:"database"`
}

// ArtifactsDTO configures the artifact store.
type ArtifactsDTO struct {
	Root string `yaml:"root"`
}

// EventsDTO configures the deployment event bus.
type EventsDTO struct {
	Redis   string `yaml:"redis"`
	Channel string `yaml:"channel"`
}

// WatchDTO configures content watching.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}
