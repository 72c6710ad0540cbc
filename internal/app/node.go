package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/content"   //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/events"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/pgcontent" //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/toolchain" //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/compiler"
	"go.trai.ch/stencil/internal/engine/extension"
	"go.trai.ch/stencil/internal/engine/resolution"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components is what the command line needs from the object graph.
type Components struct {
	App      *App
	Logger   ports.Logger
	Settings domain.Settings
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			content.NodeID,
			pgcontent.NodeID,
			events.NodeID,
			toolchain.TranspilerNodeID,
			compiler.NodeID,
			resolution.NodeID,
			extension.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	s, err := graft.Dep[domain.Settings](ctx)
	if err != nil {
		return nil, err
	}
	fsContent, err := graft.Dep[ports.ContentRepository](ctx)
	if err != nil {
		return nil, err
	}
	pg, err := graft.Dep[*pgcontent.Repository](ctx)
	if err != nil {
		return nil, err
	}
	bus, err := graft.Dep[*events.Bus](ctx)
	if err != nil {
		return nil, err
	}
	transpiler, err := graft.Dep[ports.Transpiler](ctx)
	if err != nil {
		return nil, err
	}
	compilations, err := graft.Dep[*compiler.Cache](ctx)
	if err != nil {
		return nil, err
	}
	resolutions, err := graft.Dep[*resolution.Cache](ctx)
	if err != nil {
		return nil, err
	}
	extensions, err := graft.Dep[*extension.Registry](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	repo := fsContent
	feed := func() (ports.ChangeFeed, error) {
		return watcher.NewWatcher(s.ContentRoot, s.WatchDebounce, log)
	}
	if pg != nil {
		repo = pg
		feed = func() (ports.ChangeFeed, error) {
			return pg.Feed(log), nil
		}
	}

	a := New(s, repo, transpiler, compilations, resolutions, extensions, log).WithChangeFeed(feed)
	if bus != nil {
		a = a.WithDeploymentBus(bus)
	}
	return a, nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	s, err := graft.Dep[domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:      a,
		Logger:   log,
		Settings: s,
	}, nil
}
