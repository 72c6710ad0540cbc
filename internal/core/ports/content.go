package ports

import (
	"context"
	"iter"

	"go.trai.ch/stencil/internal/core/domain"
)

//go:generate mockgen -source=content.go -destination=mocks/mock_content.go -package=mocks

// ContentRepository is the path to node lookup service scripts and sources live in.
type ContentRepository interface {
	// Stat returns the node at the absolute path. The boolean is false when it does not exist.
	Stat(ctx context.Context, path string) (domain.Location, bool, error)

	// Read returns the content of the node at the absolute path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Resolve looks name up relative to base. Absolute names are taken as is, relative names are
	// tried next to base and then under every search path. The boolean is false when nothing exists.
	Resolve(ctx context.Context, base, name string) (domain.Location, bool, error)
}

// ChangeFeed delivers content change notifications.
type ChangeFeed interface {
	// Start begins delivering changes that pass the filter.
	Start(ctx context.Context, filter domain.ChangeFilter) error
	// Stop stops the feed and releases all resources.
	Stop() error
	// Events returns an iterator of content changes. It ends when the feed stops.
	Events() iter.Seq[domain.ContentChange]
}

// DeploymentBus carries deployment events between runtime instances.
type DeploymentBus interface {
	// Start subscribes to deployment events.
	Start(ctx context.Context) error
	// Stop unsubscribes and releases all resources.
	Stop() error
	// Events returns an iterator of deployment events. It ends when the bus stops.
	Events() iter.Seq[domain.DeploymentEvent]
	// Publish announces a deployment event to every subscriber.
	Publish(ctx context.Context, event domain.DeploymentEvent) error
}
