package ports

import (
	"context"

	"go.trai.ch/stencil/internal/core/domain"
)

//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks

// Toolchain compiles generated target-language sources.
type Toolchain interface {
	// Compile submits the units. Diagnostics are reported in the result, not as an error.
	// An error is returned only when the toolchain itself could not run; a
	// *domain.ToolchainUnavailableError signals that it is not installed at all.
	Compile(ctx context.Context, units []domain.SourceUnit, opts domain.CompileOptions) (domain.CompileResult, error)
}

// Transpiler turns template source into target-language source.
type Transpiler interface {
	// Transpile converts the template. Template problems are reported in the result.
	Transpile(ctx context.Context, req domain.TranspileRequest) (domain.TranspileResult, error)
}
