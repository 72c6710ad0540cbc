package codec

import (
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
)

// Naming controls how content paths become unit identifiers.
type Naming struct {
	// Namespace prefixes the identifiers of scripts. Sources are not namespaced.
	Namespace string
	// SourceExtension marks use-object sources, whose extension is dropped.
	SourceExtension string
}

// DefaultNaming returns the naming used when nothing is configured.
func DefaultNaming() Naming {
	return Naming{
		Namespace:       domain.DefaultNamespace,
		SourceExtension: domain.DefaultSourceExtension,
	}
}

// NamingFrom extracts the naming rules from the settings.
func NamingFrom(s domain.Settings) Naming {
	n := DefaultNaming()
	if s.Namespace != "" {
		n.Namespace = s.Namespace
	}
	if s.SourceExtension != "" {
		n.SourceExtension = s.SourceExtension
	}
	return n
}

// ScratchFolder returns the store folder holding every compiled script.
func (n Naming) ScratchFolder() string {
	return domain.ScratchFolder(n.Namespace)
}

// SourceIdentifier names the unit compiled from a content path.
type SourceIdentifier struct {
	path        string
	packageName string
	simpleName  string
	source      bool
}

// Identify derives the unit names of the script or use-object source at path.
func Identify(path string, n Naming) (SourceIdentifier, error) {
	id := SourceIdentifier{path: path}
	base := path
	if n.SourceExtension != "" && strings.HasSuffix(path, n.SourceExtension) {
		id.source = true
		base = strings.TrimSuffix(path, n.SourceExtension)
	}

	encoded, err := Encode(base)
	if err != nil {
		return SourceIdentifier{}, err
	}

	if i := strings.LastIndexByte(encoded, '.'); i >= 0 {
		id.packageName, id.simpleName = encoded[:i], encoded[i+1:]
	} else {
		id.simpleName = encoded
	}
	if !id.source {
		id.packageName = joinNonEmpty(n.Namespace, id.packageName)
	}
	return id, nil
}

// Path returns the content path the identifier was derived from.
func (s SourceIdentifier) Path() string { return s.path }

// IsSource reports whether the path is a use-object source rather than a script.
func (s SourceIdentifier) IsSource() bool { return s.source }

// PackageName returns the dotted package of the unit. It is empty for top-level sources.
func (s SourceIdentifier) PackageName() string { return s.packageName }

// SimpleName returns the last segment of the identifier.
func (s SourceIdentifier) SimpleName() string { return s.simpleName }

// Identifier returns the fully qualified identifier of the unit.
func (s SourceIdentifier) Identifier() string {
	return joinNonEmpty(s.packageName, s.simpleName)
}

// ArtifactPath returns the store path of the compiled artifact.
func (s SourceIdentifier) ArtifactPath() string {
	return ArtifactPath(s.Identifier())
}

// GeneratedSourcePath returns the store path generated sources are kept at.
func (s SourceIdentifier) GeneratedSourcePath(extension string) string {
	return storePath(s.Identifier()) + extension
}

// ArtifactPath returns the store path of the compiled artifact of identifier.
func ArtifactPath(identifier string) string {
	return storePath(identifier) + domain.ArtifactExtension
}

// SourceCandidates decodes a dotted use-object name into the content paths of the sources
// it may have been compiled from, in preference order.
func SourceCandidates(identifier string, n Naming) ([]string, error) {
	paths, err := Decode(identifier)
	if err != nil {
		return nil, err
	}
	for i := range paths {
		paths[i] += n.SourceExtension
	}
	return paths, nil
}

func storePath(identifier string) string {
	return "/" + strings.ReplaceAll(identifier, ".", "/")
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "." + b
	}
}
