package resolution

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/adapters/logger"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

// NodeID is the unique identifier for the resolution cache Graft node.
const NodeID graft.ID = "engine.resolution"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID, logger.NodeID, telemetry.TracerNodeID},
		Run: func(ctx context.Context) (*Cache, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return New(s.ResolutionCacheSize, s.CapabilityFilter, log, tracer), nil
		},
	})
}
