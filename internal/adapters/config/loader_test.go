package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/build"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o600))
}

func TestLoad_FullFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
version: "1"
engine:
  keepGenerated: true
  namespace: org.example.scripts
  sourceExtension: .java
  knownExpressionOptions: ["i18n", "format"]
toolchain:
  version: "17"
  command: ["javac", "-d", "{out}", "{src}"]
  transpiler: ["htlc", "{name}"]
resolution:
  cacheSize: 0
  capabilityFilter: custom
content:
  root: content
  searchPaths: ["/apps"]
artifacts:
  root: /var/cache/stencil
events:
  redis: localhost:6379
  channel: deploys
watch:
  debounce: 200ms
`)

	loader := config.NewLoader(nil)
	s, err := loader.Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, tmpDir, s.Root)
	assert.True(t, s.KeepGenerated)
	assert.Equal(t, "org.example.scripts", s.Namespace)
	assert.Equal(t, ".java", s.SourceExtension)
	assert.Equal(t, []string{"i18n", "format"}, s.KnownExpressionOptions)
	assert.Equal(t, "17", s.ToolchainVersion)
	assert.Equal(t, []string{"javac", "-d", "{out}", "{src}"}, s.ToolchainCommand)
	assert.Equal(t, []string{"htlc", "{name}"}, s.TranspilerCommand)
	assert.Equal(t, 0, s.ResolutionCacheSize)
	assert.Equal(t, "custom", s.CapabilityFilter)
	assert.Equal(t, filepath.Join(tmpDir, "content"), s.ContentRoot)
	assert.Equal(t, []string{"/apps"}, s.SearchPaths)
	assert.Equal(t, "/var/cache/stencil", s.ArtifactsRoot)
	assert.Equal(t, "localhost:6379", s.RedisAddr)
	assert.Equal(t, "deploys", s.EventsChannel)
	assert.Equal(t, 200*time.Millisecond, s.WatchDebounce)
}

func TestLoad_DefaultsAndDiscovery(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "version: \"1\"\n")
	nested := filepath.Join(tmpDir, "apps", "site")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	loader := config.NewLoader(nil)
	root, err := loader.DiscoverRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)

	s, err := loader.Load(nested)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, s.Root)
	assert.Equal(t, domain.DefaultNamespace, s.Namespace)
	assert.Equal(t, domain.DefaultResolutionCacheSize, s.ResolutionCacheSize)
	assert.Equal(t, build.Version, s.ToolchainVersion)
	assert.Equal(t, tmpDir, s.ContentRoot)
	assert.Equal(t, filepath.Join(tmpDir, ".stencil", "artifacts"), s.ArtifactsRoot)
	assert.Equal(t, domain.DefaultSearchPaths(), s.SearchPaths)
}

func TestLoad_MissingFileWarns(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn("no stencil.yaml found, using defaults").Times(1)

	tmpDir := t.TempDir()
	s, err := config.NewLoader(log).Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, s.Root)
	assert.Equal(t, domain.DefaultCapabilityFilter, s.CapabilityFilter)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "malformed yaml",
			content:     "engine: [",
			errContains: "failed to parse config file",
		},
		{
			name:        "invalid namespace",
			content:     "engine:\n  namespace: org.my-site\n",
			errContains: "invalid configuration",
		},
		{
			name:        "reserved namespace segment",
			content:     "engine:\n  namespace: org.static\n",
			errContains: "invalid configuration",
		},
		{
			name:        "extension without dot",
			content:     "engine:\n  sourceExtension: java\n",
			errContains: "invalid configuration",
		},
		{
			name:        "relative search path",
			content:     "content:\n  searchPaths: [apps]\n",
			errContains: "invalid configuration",
		},
		{
			name:        "bad debounce",
			content:     "watch:\n  debounce: soon\n",
			errContains: "invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tmpDir := t.TempDir()
			writeConfig(t, tmpDir, tt.content)

			_, err := config.NewLoader(nil).Load(tmpDir)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}
