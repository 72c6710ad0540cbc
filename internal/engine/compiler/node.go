package compiler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/artifacts"
	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/adapters/logger"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/adapters/toolchain"
	"go.trai.ch/stencil/internal/codec"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

// NodeID is the unique identifier for the compilation cache Graft node.
const NodeID graft.ID = "engine.compiler"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			artifacts.NodeID,
			toolchain.CompilerNodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Cache, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.ArtifactStore](ctx)
			if err != nil {
				return nil, err
			}
			tc, err := graft.Dep[ports.Toolchain](ctx)
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
			return New(store, tc, log, tracer, Options{
				Naming:           codec.NamingFrom(s),
				KeepGenerated:    s.KeepGenerated,
				ToolchainVersion: s.ToolchainVersion,
			}), nil
		},
	})
}
