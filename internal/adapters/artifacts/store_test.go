package artifacts_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/artifacts"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

var _ ports.ArtifactStore = (*artifacts.Store)(nil)

func write(t *testing.T, s *artifacts.Store, p, content string) {
	t.Helper()
	w, err := s.Create(p)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestStore_CreateOpen(t *testing.T) {
	t.Parallel()

	s := artifacts.NewMemoryStore()
	write(t, s, "/stencil/runtime/apps/foo/foo_html.class", "bytecode")

	r, err := s.Open("/stencil/runtime/apps/foo/foo_html.class")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "bytecode", string(got))

	content, err := s.ReadAll("stencil/runtime/apps/foo/foo_html.class")
	require.NoError(t, err)
	assert.Equal(t, "bytecode", string(content))

	_, err = s.Open("/missing.class")
	assert.ErrorContains(t, err, "failed to read artifact")
}

func TestStore_LastModified(t *testing.T) {
	t.Parallel()

	s := artifacts.NewMemoryStore()

	_, ok, err := s.LastModified("/apps/Pojo.class")
	require.NoError(t, err)
	assert.False(t, ok)

	write(t, s, "/apps/Pojo.class", "x")
	mod, ok, err := s.LastModified("/apps/Pojo.class")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mod.IsZero())
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s := artifacts.NewMemoryStore()
	write(t, s, "/stencil/runtime/apps/a.class", "a")
	write(t, s, "/stencil/runtime/libs/b.class", "b")
	write(t, s, "/apps/Pojo.class", "c")
	write(t, s, "/stencil.config", "dev")

	require.NoError(t, s.Delete("/stencil/runtime"))
	_, ok, err := s.LastModified("/stencil/runtime/apps/a.class")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.LastModified("/apps/Pojo.class")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete("/does/not/exist"))

	assert.ErrorContains(t, s.Delete("/"), "failed to delete artifacts")
	_, ok, err = s.LastModified("/stencil.config")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_Load(t *testing.T) {
	t.Parallel()

	t.Run("default instantiator", func(t *testing.T) {
		t.Parallel()
		bfs := memfs.New()
		require.NoError(t, util.WriteFile(bfs, "apps/foo/Bar.class", []byte("code"), 0o644))

		unit, err := artifacts.NewStore(bfs).Load(context.Background(), "apps.foo.Bar")
		require.NoError(t, err)
		assert.Equal(t, &domain.Artifact{Identifier: "apps.foo.Bar", Content: []byte("code")}, unit)
	})

	t.Run("custom instantiator", func(t *testing.T) {
		t.Parallel()
		s := artifacts.NewMemoryStore(artifacts.WithInstantiator(func(id string, content []byte) (any, error) {
			return id + ":" + string(content), nil
		}))
		write(t, s, "/apps/Bar.class", "v1")

		unit, err := s.Load(context.Background(), "apps.Bar")
		require.NoError(t, err)
		assert.Equal(t, "apps.Bar:v1", unit)
	})

	t.Run("instantiation failure", func(t *testing.T) {
		t.Parallel()
		s := artifacts.NewMemoryStore(artifacts.WithInstantiator(func(string, []byte) (any, error) {
			return nil, errors.New("bad magic")
		}))
		write(t, s, "/apps/Bar.class", "v1")

		_, err := s.Load(context.Background(), "apps.Bar")
		assert.ErrorContains(t, err, "failed to load compiled artifact")
	})

	t.Run("missing artifact", func(t *testing.T) {
		t.Parallel()
		_, err := artifacts.NewMemoryStore().Load(context.Background(), "apps.Missing")
		assert.ErrorContains(t, err, "failed to load compiled artifact")
	})
}

func TestLocalStore(t *testing.T) {
	t.Parallel()

	s := artifacts.NewLocalStore(t.TempDir())
	write(t, s, "/apps/x/Y.class", "local")
	unit, err := s.Load(context.Background(), "apps.x.Y")
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), unit.(*domain.Artifact).Content)
}
