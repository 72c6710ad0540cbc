package domain

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// StencilDirName is the name of the internal workspace directory.
	StencilDirName = ".stencil"

	// ArtifactsDirName is the name of the artifact store directory.
	ArtifactsDirName = "artifacts"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "stencil.yaml"

	// VersionMarkerPath is the store path of the version marker.
	VersionMarkerPath = "/stencil.config"

	// DefaultNamespace is the identifier namespace of compiled scripts.
	DefaultNamespace = "stencil.runtime"

	// DefaultSourceExtension is the extension of use-object sources.
	DefaultSourceExtension = ".java"

	// ArtifactExtension is the extension of compiled artifacts in the store.
	ArtifactExtension = ".class"

	// DefaultResolutionCacheSize is the default number of memoized resolutions.
	DefaultResolutionCacheSize = 1024

	// DefaultCapabilityFilter is the capability a deployment must require to invalidate resolutions.
	DefaultCapabilityFilter = `stencil.extender;filter:="(&(stencil.extender=scripting)` +
		`(version>=1.0.0)(!(version>=2.0.0)))"`

	// DefaultEventsChannel is the pub/sub channel deployment events travel on.
	DefaultEventsChannel = "stencil:deployments"

	// DefaultWatchDebounce is the window in which content changes are coalesced.
	DefaultWatchDebounce = 50 * time.Millisecond

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultSearchPaths are the roots relative script names are looked up under, in order.
func DefaultSearchPaths() []string {
	return []string{"/apps", "/libs"}
}

// DefaultArtifactsPath returns the default path of the artifact store.
// It joins .stencil and artifacts.
func DefaultArtifactsPath() string {
	return filepath.Join(StencilDirName, ArtifactsDirName)
}

// ScratchFolder returns the store folder holding every artifact of a namespace.
func ScratchFolder(namespace string) string {
	return "/" + strings.ReplaceAll(namespace, ".", "/")
}
