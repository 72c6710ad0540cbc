package pgcontent

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/core/domain"
)

// NodeID is the unique identifier for the Postgres content repository Graft node.
// The node yields nil when no database is configured.
const NodeID graft.ID = "adapter.pgcontent"

func init() {
	graft.Register(graft.Node[*Repository]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (*Repository, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			if s.DatabaseURL == "" {
				return nil, nil
			}
			return Open(ctx, s.DatabaseURL, s.SearchPaths)
		},
	})
}
