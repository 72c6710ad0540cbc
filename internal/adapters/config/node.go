package config

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/logger"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

// NodeID is the unique identifier for the config loader Graft node.
const NodeID graft.ID = "adapter.config_loader"

// SettingsNodeID is the unique identifier for the settings Graft node.
// The settings are loaded once, from the working directory of the process.
const SettingsNodeID graft.ID = "adapter.settings"

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})

	graft.Register(graft.Node[domain.Settings]{
		ID:        SettingsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID},
		Run: func(ctx context.Context) (domain.Settings, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return domain.Settings{}, err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return domain.Settings{}, zerr.Wrap(err, "failed to get working directory")
			}
			return loader.Load(cwd)
		},
	})
}
