package content

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

// NodeID is the unique identifier for the filesystem content repository Graft node.
const NodeID graft.ID = "adapter.content"

func init() {
	graft.Register(graft.Node[ports.ContentRepository]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.ContentRepository, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewLocalRepository(s.ContentRoot, s.SearchPaths), nil
		},
	})
}
