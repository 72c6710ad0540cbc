package ports

import (
	"context"
	"io"
	"time"
)

// ArtifactStore holds compiled artifacts and generated sources, namespaced by identifier path.
// Paths are absolute, slash separated store paths such as "/apps/foo/Bar.class".
//
//go:generate mockgen -source=artifact_store.go -destination=mocks/mock_artifact_store.go -package=mocks
type ArtifactStore interface {
	// Open returns a reader for the artifact at path.
	Open(path string) (io.ReadCloser, error)

	// Create returns a writer replacing the artifact at path, creating parent folders as needed.
	Create(path string) (io.WriteCloser, error)

	// LastModified returns the modification time of the artifact at path.
	// The boolean is false when no artifact exists.
	LastModified(path string) (time.Time, bool, error)

	// Delete removes the artifact or folder at prefix and everything below it.
	// Deleting a missing path is not an error.
	Delete(prefix string) error

	// Load instantiates the compiled unit named by identifier.
	Load(ctx context.Context, identifier string) (any, error)
}
