// Package app implements the application layer for stencil.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.trai.ch/stencil/internal/codec"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/compiler"
	"go.trai.ch/stencil/internal/engine/extension"
	"go.trai.ch/stencil/internal/engine/resolution"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// FeedFactory creates the change feed of the content repository on demand.
type FeedFactory func() (ports.ChangeFeed, error)

// App ties the content repository, the caches and the toolchain together.
type App struct {
	settings   domain.Settings
	naming     codec.Naming
	content    ports.ContentRepository
	transpiler ports.Transpiler
	compiler   *compiler.Cache
	resolution *resolution.Cache
	extensions *extension.Registry
	logger     ports.Logger

	newFeed FeedFactory
	bus     ports.DeploymentBus
}

// New creates a new App instance.
func New(
	settings domain.Settings,
	content ports.ContentRepository,
	transpiler ports.Transpiler,
	compilations *compiler.Cache,
	resolutions *resolution.Cache,
	extensions *extension.Registry,
	logger ports.Logger,
) *App {
	return &App{
		settings:   settings,
		naming:     codec.NamingFrom(settings),
		content:    content,
		transpiler: transpiler,
		compiler:   compilations,
		resolution: resolutions,
		extensions: extensions,
		logger:     logger,
	}
}

// WithChangeFeed sets the factory of the change feed used by Watch.
func (a *App) WithChangeFeed(factory FeedFactory) *App {
	a.newFeed = factory
	return a
}

// WithDeploymentBus sets the bus deployment events are received from and announced on.
func (a *App) WithDeploymentBus(bus ports.DeploymentBus) *App {
	a.bus = bus
	return a
}

// Naming returns the naming scheme of compiled scripts.
func (a *App) Naming() codec.Naming {
	return a.naming
}

// Extensions returns the extension registry.
func (a *App) Extensions() *extension.Registry {
	return a.extensions
}

// ResolveScript resolves name for caller. A memoized location is checked against the
// repository again so that the modification time is current; a location that vanished
// since it was memoized is reported as not found.
func (a *App) ResolveScript(
	ctx context.Context,
	caller domain.CallerContext,
	name string,
) (domain.Location, bool, error) {
	loc, found, err := a.resolution.Resolve(ctx, caller, name, func(ctx context.Context) (domain.Location, bool, error) {
		return a.content.Resolve(ctx, caller.ScriptPath, name)
	})
	if err != nil || !found {
		return domain.Location{}, false, err
	}
	return a.content.Stat(ctx, loc.Path)
}

// CompileScript transpiles and compiles the template at path. Template warnings are
// logged, the first template error fails the compilation.
func (a *App) CompileScript(ctx context.Context, path string) (*domain.CompiledUnit, error) {
	loc, found, err := a.content.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, zerr.With(domain.ErrScriptNotFound, "path", path)
	}

	id, err := codec.Identify(path, a.naming)
	if err != nil {
		return nil, err
	}

	supply := func(ctx context.Context) (string, error) {
		template, err := a.content.Read(ctx, path)
		if err != nil {
			return "", err
		}
		return a.transpile(ctx, id, string(template))
	}
	if id.IsSource() {
		supply = a.readSource(path)
	}
	return a.compiler.GetOrCompile(ctx, id, supply, loc.Modified)
}

func (a *App) transpile(ctx context.Context, id codec.SourceIdentifier, template string) (string, error) {
	result, err := a.transpiler.Transpile(ctx, domain.TranspileRequest{
		ScriptName:   id.Path(),
		PackageName:  id.PackageName(),
		ClassName:    id.SimpleName(),
		Template:     template,
		KnownOptions: a.settings.KnownExpressionOptions,
	})
	if err != nil {
		return "", err
	}
	for _, w := range result.Warnings {
		a.logger.Warn(w.String())
	}
	if len(result.Errors) > 0 {
		return "", zerr.With(domain.ErrTranspileFailed, "problem", result.Errors[0].String())
	}
	return result.Source, nil
}

func (a *App) readSource(path string) compiler.SourceSupplier {
	return func(ctx context.Context) (string, error) {
		source, err := a.content.Read(ctx, path)
		if err != nil {
			return "", err
		}
		return string(source), nil
	}
}

// UseObject loads the use-object name for caller. A dotted name is decoded into the
// source paths it may stem from and the first existing one is compiled. Any other name
// is resolved next to the caller with the source extension appended.
func (a *App) UseObject(
	ctx context.Context,
	caller domain.CallerContext,
	name string,
) (*domain.CompiledUnit, bool, error) {
	loc, found, err := a.locateUseObject(ctx, caller, name)
	if err != nil || !found {
		return nil, false, err
	}

	id, err := codec.Identify(loc.Path, a.naming)
	if err != nil {
		return nil, false, err
	}
	unit, err := a.compiler.GetOrCompile(ctx, id, a.readSource(loc.Path), loc.Modified)
	if err != nil {
		return nil, false, err
	}
	return unit, true, nil
}

func (a *App) locateUseObject(
	ctx context.Context,
	caller domain.CallerContext,
	name string,
) (domain.Location, bool, error) {
	if !strings.Contains(name, ".") {
		return a.ResolveScript(ctx, caller, name+a.naming.SourceExtension)
	}

	candidates, err := codec.SourceCandidates(name, a.naming)
	if err != nil {
		return domain.Location{}, false, err
	}
	for _, p := range candidates {
		loc, found, err := a.content.Stat(ctx, p)
		if err != nil {
			return domain.Location{}, false, err
		}
		if found {
			return loc, true, nil
		}
	}
	return domain.Location{}, false, nil
}

// Precompile compiles the scripts at paths concurrently. It returns the units in the
// order of paths, or the first failure.
func (a *App) Precompile(ctx context.Context, paths []string) ([]*domain.CompiledUnit, error) {
	units := make([]*domain.CompiledUnit, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			unit, err := a.CompileScript(ctx, p)
			if err != nil {
				return err
			}
			units[i] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// CallExtension calls the extension registered under name.
func (a *App) CallExtension(ctx context.Context, name string, args ...any) (any, error) {
	return a.extensions.Call(ctx, name, args...)
}

// Clean removes every compiled script.
func (a *App) Clean(ctx context.Context) error {
	if err := a.compiler.Clean(ctx); err != nil {
		return err
	}
	a.resolution.Invalidate()
	a.logger.Info("removed compiled scripts")
	return nil
}

// Announce publishes a deployment event to every runtime instance.
func (a *App) Announce(ctx context.Context, event domain.DeploymentEvent) error {
	if a.bus == nil {
		return domain.ErrEventBusNotConfigured
	}
	return a.bus.Publish(ctx, event)
}

// Watch invalidates the resolution cache on content changes and deployment events
// until ctx is canceled.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	fail := func(err error) error {
		cancel()
		_ = g.Wait()
		return err
	}

	if a.newFeed != nil {
		feed, err := a.newFeed()
		if err != nil {
			return err
		}
		if err := feed.Start(ctx, domain.ChangeFilter{Prefixes: a.settings.SearchPaths}); err != nil {
			_ = feed.Stop()
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			return feed.Stop()
		})
		g.Go(func() error {
			for change := range feed.Events() {
				a.resolution.OnContentChange(change)
			}
			return nil
		})
	}

	if a.bus != nil {
		if err := a.bus.Start(ctx); err != nil {
			return fail(err)
		}
		g.Go(func() error {
			<-ctx.Done()
			return a.bus.Stop()
		})
		g.Go(func() error {
			for event := range a.bus.Events() {
				if a.resolution.OnDeployment(event) {
					a.logger.Info(fmt.Sprintf("deployment of %s cleared the resolution cache", event.Name))
				}
			}
			return nil
		})
	}

	a.logger.Info("watching for content changes")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
