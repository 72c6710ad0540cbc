// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/stencil/internal/adapters/artifacts"
	_ "go.trai.ch/stencil/internal/adapters/config"
	_ "go.trai.ch/stencil/internal/adapters/content"
	_ "go.trai.ch/stencil/internal/adapters/events"
	_ "go.trai.ch/stencil/internal/adapters/logger"
	_ "go.trai.ch/stencil/internal/adapters/pgcontent"
	_ "go.trai.ch/stencil/internal/adapters/telemetry"
	_ "go.trai.ch/stencil/internal/adapters/toolchain"
	// Register app and engine nodes.
	_ "go.trai.ch/stencil/internal/app"
	_ "go.trai.ch/stencil/internal/engine/compiler"
	_ "go.trai.ch/stencil/internal/engine/extension"
	_ "go.trai.ch/stencil/internal/engine/resolution"
)
