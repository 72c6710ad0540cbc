// Package compiler compiles generated sources on demand and keeps the loaded units.
//
// Units are compiled at most once per source modification. Concurrent requests for the
// same identifier wait for a single compilation, unrelated identifiers compile in parallel.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stencil/internal/codec"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

// SourceSupplier produces the generated source of a unit. It is only called when the
// unit has to be compiled.
type SourceSupplier func(ctx context.Context) (string, error)

// Options configures a Cache.
type Options struct {
	Naming codec.Naming
	// KeepGenerated persists every generated source next to its artifact.
	KeepGenerated bool
	// ToolchainVersion is compared with the stored version marker on activation.
	ToolchainVersion string
}

// Cache implements the compile-on-demand cache.
type Cache struct {
	store     ports.ArtifactStore
	toolchain ports.Toolchain
	logger    ports.Logger
	tracer    ports.Tracer
	opts      Options
	now       func() time.Time

	activation sync.Mutex
	activated  atomic.Bool

	locks *keyedLocks

	mu     sync.RWMutex
	stamps map[string]time.Time // source path -> source modification the artifact reflects
	units  map[string]*domain.CompiledUnit

	compilations atomic.Int64
}

// New creates a compilation cache.
func New(
	store ports.ArtifactStore,
	toolchain ports.Toolchain,
	logger ports.Logger,
	tracer ports.Tracer,
	opts Options,
) *Cache {
	return &Cache{
		store:     store,
		toolchain: toolchain,
		logger:    logger,
		tracer:    tracer,
		opts:      opts,
		now:       time.Now,
		locks:     newKeyedLocks(),
		stamps:    make(map[string]time.Time),
		units:     make(map[string]*domain.CompiledUnit),
	}
}

// Activate compares the stored version marker with the configured toolchain version.
// When the marker is missing or differs, every artifact in the scratch namespace is
// removed before the new marker is written. Only the first call does any work.
func (c *Cache) Activate(_ context.Context) error {
	if c.activated.Load() {
		return nil
	}
	c.activation.Lock()
	defer c.activation.Unlock()
	if c.activated.Load() {
		return nil
	}

	current, err := c.readMarker()
	if err != nil {
		return err
	}
	if current != c.opts.ToolchainVersion {
		scratch := c.opts.Naming.ScratchFolder()
		c.logger.Info(fmt.Sprintf("toolchain version changed from %q to %q, removing %s",
			current, c.opts.ToolchainVersion, scratch))
		if err := c.store.Delete(scratch); err != nil {
			return zerr.Wrap(err, domain.ErrVersionMarkerFailed.Error())
		}
		if err := c.writeFile(domain.VersionMarkerPath, []byte(c.opts.ToolchainVersion)); err != nil {
			return zerr.Wrap(err, domain.ErrVersionMarkerFailed.Error())
		}
	}

	c.activated.Store(true)
	return nil
}

// Clean removes every compiled script and the version marker, and forgets all units.
// The next request activates the cache again.
func (c *Cache) Clean(_ context.Context) error {
	c.activation.Lock()
	defer c.activation.Unlock()

	if err := c.store.Delete(c.opts.Naming.ScratchFolder()); err != nil {
		return err
	}
	if err := c.store.Delete(domain.VersionMarkerPath); err != nil {
		return err
	}

	c.mu.Lock()
	c.stamps = make(map[string]time.Time)
	c.units = make(map[string]*domain.CompiledUnit)
	c.mu.Unlock()

	c.activated.Store(false)
	return nil
}

// GetOrCompile returns the unit of id, compiling it first when it was never compiled or
// its source changed after the last compilation.
func (c *Cache) GetOrCompile(
	ctx context.Context,
	id codec.SourceIdentifier,
	supply SourceSupplier,
	sourceModified time.Time,
) (*domain.CompiledUnit, error) {
	if err := c.Activate(ctx); err != nil {
		return nil, err
	}

	identifier := id.Identifier()
	ctx, span := c.tracer.Start(ctx, "compiler.get_or_compile")
	defer span.End()
	span.SetAttribute("identifier", identifier)

	unlock := c.locks.lock(identifier)
	defer unlock()

	unit, err := c.getOrCompileLocked(ctx, id, supply, sourceModified)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return unit, nil
}

func (c *Cache) getOrCompileLocked(
	ctx context.Context,
	id codec.SourceIdentifier,
	supply SourceSupplier,
	sourceModified time.Time,
) (*domain.CompiledUnit, error) {
	stale, err := c.isStale(id, sourceModified)
	if err != nil {
		return nil, err
	}
	if stale {
		return c.compile(ctx, id, supply, sourceModified)
	}

	c.mu.RLock()
	unit, ok := c.units[id.Identifier()]
	c.mu.RUnlock()
	if ok {
		return unit, nil
	}
	return c.load(ctx, id)
}

// isStale must be called with the identifier lock held.
func (c *Cache) isStale(id codec.SourceIdentifier, sourceModified time.Time) (bool, error) {
	c.mu.RLock()
	recorded, ok := c.stamps[id.Path()]
	c.mu.RUnlock()
	if ok {
		return sourceModified.After(recorded), nil
	}

	compiledAt, exists, err := c.store.LastModified(id.ArtifactPath())
	if err != nil {
		return false, err
	}
	if !exists || sourceModified.After(compiledAt) {
		return true, nil
	}

	c.mu.Lock()
	c.stamps[id.Path()] = sourceModified
	c.mu.Unlock()
	return false, nil
}

func (c *Cache) compile(
	ctx context.Context,
	id codec.SourceIdentifier,
	supply SourceSupplier,
	sourceModified time.Time,
) (*domain.CompiledUnit, error) {
	identifier := id.Identifier()

	source, err := supply(ctx)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceSupplyFailed.Error()), "identifier", identifier)
	}
	source = ensurePackage(source, id.PackageName())

	if c.opts.KeepGenerated {
		c.keep(id, source)
	}

	result, err := c.toolchain.Compile(ctx, []domain.SourceUnit{{
		Identifier: identifier,
		SourceName: id.Path(),
		Source:     source,
	}}, domain.CompileOptions{
		GenerateDebugInfo: true,
		ForceCompilation:  true,
		SourceVersion:     c.opts.ToolchainVersion,
		TargetVersion:     c.opts.ToolchainVersion,
	})
	if err != nil {
		var unavailable *domain.ToolchainUnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrToolchainFailed.Error()), "identifier", identifier)
	}
	if len(result.Diagnostics) > 0 {
		return nil, domain.NewCompilationError(identifier, id.Path(), result.Diagnostics)
	}
	c.compilations.Add(1)

	for _, p := range slices.Sorted(maps.Keys(result.Artifacts)) {
		if err := c.writeFile("/"+strings.TrimPrefix(p, "/"), result.Artifacts[p]); err != nil {
			return nil, err
		}
	}

	unit, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stamps[id.Path()] = sourceModified
	c.mu.Unlock()

	c.logger.Debug(fmt.Sprintf("compiled %s from %s", identifier, id.Path()))
	return unit, nil
}

func (c *Cache) load(ctx context.Context, id codec.SourceIdentifier) (*domain.CompiledUnit, error) {
	identifier := id.Identifier()
	instance, err := c.store.Load(ctx, identifier)
	if err != nil {
		return nil, err
	}
	sum, err := c.checksum(id.ArtifactPath())
	if err != nil {
		return nil, err
	}

	unit := &domain.CompiledUnit{
		Identifier: identifier,
		SourcePath: id.Path(),
		CompiledAt: c.now(),
		Checksum:   sum,
		Instance:   instance,
	}
	c.mu.Lock()
	c.units[identifier] = unit
	c.mu.Unlock()
	return unit, nil
}

// keep writes the generated source unless an identical copy is already stored.
// Failures are logged, they never fail the compilation.
func (c *Cache) keep(id codec.SourceIdentifier, source string) {
	p := id.GeneratedSourcePath(c.opts.Naming.SourceExtension)
	if _, exists, err := c.store.LastModified(p); err == nil && exists {
		if sum, err := c.checksum(p); err == nil && sum == xxhash.Sum64String(source) {
			return
		}
	}
	if err := c.writeFile(p, []byte(source)); err != nil {
		c.logger.Warn(fmt.Sprintf("could not keep generated source of %s: %v", id.Identifier(), err))
	}
}

func (c *Cache) checksum(p string) (uint64, error) {
	r, err := c.store.Open(p)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrArtifactReadFailed.Error()), "path", p)
	}
	return h.Sum64(), nil
}

func (c *Cache) readMarker() (string, error) {
	_, exists, err := c.store.LastModified(domain.VersionMarkerPath)
	if err != nil || !exists {
		return "", err
	}
	r, err := c.store.Open(domain.VersionMarkerPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	content, err := io.ReadAll(r)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrVersionMarkerFailed.Error())
	}
	return string(content), nil
}

func (c *Cache) writeFile(p string, content []byte) (err error) {
	w, err := c.store.Create(p)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = zerr.With(zerr.Wrap(closeErr, domain.ErrArtifactWriteFailed.Error()), "path", p)
		}
	}()
	if _, err := w.Write(content); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArtifactWriteFailed.Error()), "path", p)
	}
	return nil
}

// Compilations returns how many times the toolchain produced output.
func (c *Cache) Compilations() int64 {
	return c.compilations.Load()
}

// Units returns the number of units currently held in memory.
func (c *Cache) Units() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}
