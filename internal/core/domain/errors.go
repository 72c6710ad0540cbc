package domain

import "go.trai.ch/zerr"

var (
	// ErrEmptyPath is returned when a path without any usable segment is encoded.
	ErrEmptyPath = zerr.New("path has no segments")

	// ErrRelativeSegment is returned when a path contains a "." or ".." segment.
	ErrRelativeSegment = zerr.New("path contains a relative segment")

	// ErrEmptyIdentifier is returned when an empty identifier is decoded.
	ErrEmptyIdentifier = zerr.New("identifier is empty")

	// ErrEmptySegment is returned when an identifier contains an empty segment.
	ErrEmptySegment = zerr.New("identifier contains an empty segment")

	// ErrTooManyCandidates is returned when decoding would produce more candidates than allowed.
	ErrTooManyCandidates = zerr.New("identifier expands to too many candidate paths")

	// ErrArtifactReadFailed is returned when an artifact cannot be read from the store.
	ErrArtifactReadFailed = zerr.New("failed to read artifact")

	// ErrArtifactWriteFailed is returned when an artifact cannot be written to the store.
	ErrArtifactWriteFailed = zerr.New("failed to write artifact")

	// ErrArtifactDeleteFailed is returned when artifacts cannot be removed from the store.
	ErrArtifactDeleteFailed = zerr.New("failed to delete artifacts")

	// ErrArtifactLoadFailed is returned when a compiled artifact cannot be loaded.
	ErrArtifactLoadFailed = zerr.New("failed to load compiled artifact")

	// ErrVersionMarkerFailed is returned when the version marker cannot be read or written.
	ErrVersionMarkerFailed = zerr.New("failed to update version marker")

	// ErrSourceSupplyFailed is returned when the generated source of a unit cannot be obtained.
	ErrSourceSupplyFailed = zerr.New("failed to obtain generated source")

	// ErrToolchainFailed is returned when the toolchain process fails without reporting diagnostics.
	ErrToolchainFailed = zerr.New("toolchain failed")

	// ErrTranspileFailed is returned when a template cannot be transpiled.
	ErrTranspileFailed = zerr.New("failed to transpile template")

	// ErrScriptNotFound is returned when a script requested by path does not exist.
	ErrScriptNotFound = zerr.New("script not found")

	// ErrContentLookupFailed is returned when the content repository cannot be queried.
	ErrContentLookupFailed = zerr.New("failed to look up content")

	// ErrContentReadFailed is returned when a content node cannot be read.
	ErrContentReadFailed = zerr.New("failed to read content")

	// ErrWatcherStartFailed is returned when a change feed cannot be started.
	ErrWatcherStartFailed = zerr.New("failed to start change feed")

	// ErrEventDecodeFailed is returned when a deployment event payload cannot be decoded.
	ErrEventDecodeFailed = zerr.New("failed to decode deployment event")

	// ErrEventPublishFailed is returned when a deployment event cannot be published.
	ErrEventPublishFailed = zerr.New("failed to publish deployment event")

	// ErrEventBusConnectFailed is returned when the deployment event bus cannot be reached.
	ErrEventBusConnectFailed = zerr.New("failed to connect to event bus")

	// ErrEventBusNotConfigured is returned when an event is announced without an event bus.
	ErrEventBusNotConfigured = zerr.New("no event bus configured")

	// ErrInvalidLogFormat is returned for an unknown log format choice.
	ErrInvalidLogFormat = zerr.New("invalid log format")

	// ErrUseObjectNotFound is returned when no source exists for a use-object name.
	ErrUseObjectNotFound = zerr.New("use-object not found")

	// ErrDatabaseConnectFailed is returned when the content database cannot be reached.
	ErrDatabaseConnectFailed = zerr.New("failed to connect to content database")

	// ErrMigrationFailed is returned when the content database schema cannot be migrated.
	ErrMigrationFailed = zerr.New("failed to migrate content database")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no config file exists in the directory or its parents.
	ErrConfigNotFound = zerr.New("could not find stencil.yaml")

	// ErrInvalidConfig is returned when the config file contains an invalid value.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrUnknownExtension is returned when no implementation is registered under a name.
	ErrUnknownExtension = zerr.New("unknown extension")

	// ErrInvalidExtensionArgs is returned when an extension is called with unusable arguments.
	ErrInvalidExtensionArgs = zerr.New("invalid extension arguments")
)
