package domain

import (
	"strings"
	"time"
)

// Location is a concrete content node a logical name resolved to.
type Location struct {
	Path     string
	Modified time.Time
}

// CallerContext identifies who asks for a resolution. Lookups are memoized per caller.
type CallerContext struct {
	// ResourceType is the type of the resource being rendered.
	ResourceType string
	// ScriptPath is the path of the script issuing the lookup. Relative names resolve against it.
	ScriptPath string
}

// ChangeKind describes what happened to a content node.
type ChangeKind uint8

const (
	// ChangeAdded indicates a node was created.
	ChangeAdded ChangeKind = iota + 1
	// ChangeModified indicates a node was updated.
	ChangeModified
	// ChangeRemoved indicates a node was removed or moved away.
	ChangeRemoved
)

// String returns the lower-case name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ContentChange is a single change notification from a content repository.
type ContentChange struct {
	Path string
	Kind ChangeKind
}

// ChangeFilter selects the changes a subscriber is interested in.
// Empty prefixes or kinds match everything.
type ChangeFilter struct {
	Prefixes []string
	Kinds    []ChangeKind
}

// Matches reports whether the change passes the filter.
func (f ChangeFilter) Matches(c ContentChange) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if k == c.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Prefixes) == 0 {
		return true
	}
	for _, p := range f.Prefixes {
		if strings.HasPrefix(c.Path, p) {
			return true
		}
	}
	return false
}

// RequireCapabilityHeader is the deployment header that declares required capabilities.
const RequireCapabilityHeader = "Require-Capability"

// DeploymentEvent announces that a component providing scripts was installed, updated or removed.
type DeploymentEvent struct {
	Name    string            `json:"name"`
	Headers map[string]string `json:"headers,omitempty"`
}

// RequiresCapability reports whether the event's capability declaration contains filter.
func (e DeploymentEvent) RequiresCapability(filter string) bool {
	if filter == "" {
		return false
	}
	return strings.Contains(e.Headers[RequireCapabilityHeader], filter)
}
