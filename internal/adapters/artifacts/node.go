package artifacts

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

// NodeID is the unique identifier for the artifact store Graft node.
const NodeID graft.ID = "adapter.artifact_store"

func init() {
	graft.Register(graft.Node[ports.ArtifactStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.ArtifactStore, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewLocalStore(s.ArtifactsRoot), nil
		},
	})
}
