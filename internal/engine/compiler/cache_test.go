package compiler_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/artifacts"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/codec"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports/mocks"
	"go.trai.ch/stencil/internal/engine/compiler"
	"go.uber.org/mock/gomock"
)

const (
	scriptPath   = "/apps/foo/foo.html"
	artifactPath = "/stencil/runtime/apps/foo/foo_html.class"
)

var base = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	cache     *compiler.Cache
	store     *artifacts.Store
	toolchain *mocks.MockToolchain
	id        codec.SourceIdentifier
}

func newFixture(t *testing.T, opts compiler.Options) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	if opts.Naming == (codec.Naming{}) {
		opts.Naming = codec.DefaultNaming()
	}
	if opts.ToolchainVersion == "" {
		opts.ToolchainVersion = "v1"
	}

	id, err := codec.Identify(scriptPath, opts.Naming)
	require.NoError(t, err)

	f := &fixture{
		store:     artifacts.NewMemoryStore(),
		toolchain: mocks.NewMockToolchain(ctrl),
		id:        id,
	}
	f.cache = compiler.New(f.store, f.toolchain, log, telemetry.NewNoOpTracer(), opts)
	return f
}

func supplier(source string) compiler.SourceSupplier {
	return func(context.Context) (string, error) {
		return source, nil
	}
}

func compiled(content string) domain.CompileResult {
	return domain.CompileResult{
		DidCompile: true,
		Artifacts: map[string][]byte{
			strings.TrimPrefix(artifactPath, "/"): []byte(content),
		},
	}
}

func TestCache_CompilesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, compiler.Options{})
	f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).Return(compiled("v1"), nil).Times(1)

	ctx := context.Background()
	first, err := f.cache.GetOrCompile(ctx, f.id, supplier("class foo_html {}"), base)
	require.NoError(t, err)
	second, err := f.cache.GetOrCompile(ctx, f.id, supplier("class foo_html {}"), base)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "stencil.runtime.apps.foo.foo_html", first.Identifier)
	assert.Equal(t, scriptPath, first.SourcePath)
	assert.Equal(t, &domain.Artifact{Identifier: first.Identifier, Content: []byte("v1")}, first.Instance)
	assert.NotZero(t, first.Checksum)
	assert.Equal(t, int64(1), f.cache.Compilations())
	assert.Equal(t, 0, f.cache.LockTableSize())
}

func TestCache_RecompilesStaleSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t, compiler.Options{})
	gomock.InOrder(
		f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).Return(compiled("v1"), nil),
		f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).Return(compiled("v2"), nil),
	)

	ctx := context.Background()
	first, err := f.cache.GetOrCompile(ctx, f.id, supplier("v1"), base)
	require.NoError(t, err)

	later := base.Add(time.Hour)
	second, err := f.cache.GetOrCompile(ctx, f.id, supplier("v2"), later)
	require.NoError(t, err)
	third, err := f.cache.GetOrCompile(ctx, f.id, supplier("v2"), later)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Same(t, second, third)
	assert.NotEqual(t, first.Checksum, second.Checksum)
	assert.Equal(t, []byte("v2"), second.Instance.(*domain.Artifact).Content)
	assert.Equal(t, int64(2), f.cache.Compilations())
}

func TestCache_ConcurrentCallersCompileOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, compiler.Options{})
	f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []domain.SourceUnit, domain.CompileOptions) (domain.CompileResult, error) {
			time.Sleep(10 * time.Millisecond)
			return compiled("v1"), nil
		}).Times(1)

	const callers = 100
	units := make([]*domain.CompiledUnit, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			units[i], errs[i] = f.cache.GetOrCompile(context.Background(), f.id, supplier("src"), base)
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		require.NotNil(t, units[i])
		assert.Same(t, units[0], units[i])
	}
	assert.Equal(t, 0, f.cache.LockTableSize())
}

func TestCache_InjectsPackage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, compiler.Options{})
	var submitted []domain.SourceUnit
	var options domain.CompileOptions
	f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, units []domain.SourceUnit, opts domain.CompileOptions) (domain.CompileResult, error) {
			submitted, options = units, opts
			return compiled("v1"), nil
		})

	_, err := f.cache.GetOrCompile(context.Background(), f.id, supplier("public class foo_html {}"), base)
	require.NoError(t, err)

	require.Len(t, submitted, 1)
	assert.Equal(t, "stencil.runtime.apps.foo.foo_html", submitted[0].Identifier)
	assert.Equal(t, scriptPath, submitted[0].SourceName)
	assert.Equal(t, "package stencil.runtime.apps.foo;\npublic class foo_html {}", submitted[0].Source)
	assert.True(t, options.GenerateDebugInfo)
	assert.True(t, options.ForceCompilation)
	assert.Equal(t, "v1", options.SourceVersion)
	assert.Equal(t, "v1", options.TargetVersion)
}

func TestCache_KeepsGeneratedSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t, compiler.Options{KeepGenerated: true})
	f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).Return(compiled("v1"), nil)

	_, err := f.cache.GetOrCompile(context.Background(), f.id, supplier("package x;\nclass foo_html {}"), base)
	require.NoError(t, err)

	kept, err := f.store.ReadAll("/stencil/runtime/apps/foo/foo_html.java")
	require.NoError(t, err)
	assert.Equal(t, "package x;\nclass foo_html {}", string(kept))
}

func TestCache_CompilationError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, compiler.Options{})
	diags := []domain.Diagnostic{
		{SourceName: scriptPath, Line: 3, Column: 7, Message: "Duplicate local variable _dynamic"},
		{SourceName: scriptPath, Line: 9, Column: 1, Message: "missing ;"},
	}
	gomock.InOrder(
		f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.CompileResult{Diagnostics: diags}, nil),
		f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).Return(compiled("fixed"), nil),
	)

	ctx := context.Background()
	_, err := f.cache.GetOrCompile(ctx, f.id, supplier("broken"), base)
	require.Error(t, err)

	var compErr *domain.CompilationError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, "stencil.runtime.apps.foo.foo_html", compErr.Identifier)
	assert.Equal(t, diags, compErr.Diagnostics)
	assert.Equal(t, domain.DuplicateVariableHint, compErr.Hint)
	assert.Contains(t, err.Error(), "Line 9, column 1 : missing ;")

	unit, err := f.cache.GetOrCompile(ctx, f.id, supplier("fixed"), base)
	require.NoError(t, err)
	assert.Equal(t, []byte("fixed"), unit.Instance.(*domain.Artifact).Content)
}

func TestCache_ToolchainFailures(t *testing.T) {
	t.Parallel()

	t.Run("unavailable", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, compiler.Options{})
		unavailable := &domain.ToolchainUnavailableError{Toolchain: "javac", Err: errors.New("not found")}
		f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.CompileResult{}, unavailable)

		_, err := f.cache.GetOrCompile(context.Background(), f.id, supplier("src"), base)
		assert.Same(t, unavailable, err)
	})

	t.Run("crashed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, compiler.Options{})
		f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.CompileResult{}, errors.New("signal: killed"))

		_, err := f.cache.GetOrCompile(context.Background(), f.id, supplier("src"), base)
		assert.ErrorContains(t, err, "toolchain failed")
	})

	t.Run("supplier", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, compiler.Options{})
		_, err := f.cache.GetOrCompile(context.Background(), f.id, func(context.Context) (string, error) {
			return "", errors.New("template broken")
		}, base)
		assert.ErrorContains(t, err, "failed to obtain generated source")
	})
}

func TestCache_VersionMarkerReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t, compiler.Options{ToolchainVersion: "v2"})
	seed := func(p, content string) {
		w, err := f.store.Create(p)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}
	seed(domain.VersionMarkerPath, "v1")
	seed(artifactPath, "old")
	seed("/stencil/runtime/libs/other/Other.class", "old")
	seed("/apps/Pojo.class", "use-object")

	f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []domain.SourceUnit, domain.CompileOptions) (domain.CompileResult, error) {
			_, exists, err := f.store.LastModified("/stencil/runtime/libs/other/Other.class")
			require.NoError(t, err)
			assert.False(t, exists, "scratch artifacts must be gone before compiling")
			return compiled("new"), nil
		})

	unit, err := f.cache.GetOrCompile(context.Background(), f.id, supplier("src"), base)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), unit.Instance.(*domain.Artifact).Content)

	marker, err := f.store.ReadAll(domain.VersionMarkerPath)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(marker))

	_, exists, err := f.store.LastModified("/apps/Pojo.class")
	require.NoError(t, err)
	assert.True(t, exists, "artifacts outside the scratch namespace survive")
}

func TestCache_MatchingMarkerKeepsArtifacts(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockArtifactStore(ctrl)
	tc := mocks.NewMockToolchain(ctrl)
	log := mocks.NewMockLogger(ctrl)

	store.EXPECT().LastModified(domain.VersionMarkerPath).Return(base, true, nil)
	store.EXPECT().Open(domain.VersionMarkerPath).Return(readCloser("v1"), nil)
	store.EXPECT().LastModified(artifactPath).Return(base.Add(time.Minute), true, nil)
	store.EXPECT().Load(gomock.Any(), "stencil.runtime.apps.foo.foo_html").Return("instance", nil)
	store.EXPECT().Open(artifactPath).Return(readCloser("bytes"), nil)

	id, err := codec.Identify(scriptPath, codec.DefaultNaming())
	require.NoError(t, err)

	c := compiler.New(store, tc, log, telemetry.NewNoOpTracer(), compiler.Options{
		Naming:           codec.DefaultNaming(),
		ToolchainVersion: "v1",
	})
	c.SetClock(func() time.Time { return base })

	unit, err := c.GetOrCompile(context.Background(), id, supplier("unused"), base)
	require.NoError(t, err)
	assert.Equal(t, "instance", unit.Instance)
	assert.Equal(t, base, unit.CompiledAt)
	assert.Equal(t, int64(0), c.Compilations())

	again, err := c.GetOrCompile(context.Background(), id, supplier("unused"), base)
	require.NoError(t, err)
	assert.Same(t, unit, again)
}

func TestCache_Clean(t *testing.T) {
	t.Parallel()

	f := newFixture(t, compiler.Options{})
	f.toolchain.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).Return(compiled("v1"), nil).Times(2)

	ctx := context.Background()
	_, err := f.cache.GetOrCompile(ctx, f.id, supplier("src"), base)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.Units())

	require.NoError(t, f.cache.Clean(ctx))
	assert.Equal(t, 0, f.cache.Units())
	_, exists, err := f.store.LastModified(artifactPath)
	require.NoError(t, err)
	assert.False(t, exists)
	_, exists, err = f.store.LastModified(domain.VersionMarkerPath)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.cache.GetOrCompile(ctx, f.id, supplier("src"), base)
	require.NoError(t, err)
	marker, err := f.store.ReadAll(domain.VersionMarkerPath)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(marker))
}

func readCloser(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
