package events

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/adapters/logger"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

// NodeID is the unique identifier for the deployment bus Graft node.
// The node yields nil when no Redis server is configured.
const NodeID graft.ID = "adapter.events"

func init() {
	graft.Register(graft.Node[*Bus]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Bus, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			if s.RedisAddr == "" {
				return nil, nil
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return Connect(ctx, s.RedisAddr, s.EventsChannel, log)
		},
	})
}
