package toolchain

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

const (
	// CompilerNodeID is the unique identifier for the compiler Graft node.
	CompilerNodeID graft.ID = "adapter.toolchain"
	// TranspilerNodeID is the unique identifier for the transpiler Graft node.
	TranspilerNodeID graft.ID = "adapter.transpiler"
)

func init() {
	graft.Register(graft.Node[ports.Toolchain]{
		ID:        CompilerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.Toolchain, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewCompiler(s.ToolchainCommand, s.SourceExtension), nil
		},
	})

	graft.Register(graft.Node[ports.Transpiler]{
		ID:        TranspilerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.Transpiler, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewTranspiler(s.TranspilerCommand), nil
		},
	})
}
