// Package config provides the configuration loader for stencil.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/stencil/internal/build"
	"go.trai.ch/stencil/internal/codec"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load discovers stencil.yaml from cwd upwards and returns the validated settings.
// Defaults rooted at cwd are returned when no file exists.
func (l *Loader) Load(cwd string) (domain.Settings, error) {
	root, err := l.DiscoverRoot(cwd)
	if err != nil {
		l.Logger.Warn(fmt.Sprintf("no %s found, using defaults", domain.ConfigFileName))
		return withDefaults(domain.DefaultSettings(), cwd), nil
	}

	configPath := filepath.Join(root, domain.ConfigFileName)
	var file Stencilfile
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return domain.Settings{}, zerr.With(err, "path", configPath)
	}

	settings, err := toSettings(file)
	if err != nil {
		return domain.Settings{}, zerr.With(err, "path", configPath)
	}
	return withDefaults(settings, root), nil
}

// DiscoverRoot walks up from cwd to find the directory containing stencil.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	currentDir := cwd
	for {
		if _, err := os.Stat(filepath.Join(currentDir, domain.ConfigFileName)); err == nil {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func toSettings(file Stencilfile) (domain.Settings, error) {
	s := domain.DefaultSettings()

	s.KeepGenerated = file.Engine.KeepGenerated
	if file.Engine.Namespace != "" {
		if err := validateNamespace(file.Engine.Namespace); err != nil {
			return domain.Settings{}, err
		}
		s.Namespace = file.Engine.Namespace
	}
	if ext := file.Engine.SourceExtension; ext != "" {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return domain.Settings{}, zerr.With(domain.ErrInvalidConfig, "engine.sourceExtension", ext)
		}
		s.SourceExtension = ext
	}
	s.KnownExpressionOptions = file.Engine.KnownExpressionOptions

	s.ToolchainVersion = file.Toolchain.Version
	s.ToolchainCommand = file.Toolchain.Command
	s.TranspilerCommand = file.Toolchain.Transpiler

	if file.Resolution.CacheSize != nil {
		s.ResolutionCacheSize = *file.Resolution.CacheSize
	}
	if file.Resolution.CapabilityFilter != "" {
		s.CapabilityFilter = file.Resolution.CapabilityFilter
	}

	s.ContentRoot = file.Content.Root
	if len(file.Content.SearchPaths) > 0 {
		for _, p := range file.Content.SearchPaths {
			if !strings.HasPrefix(p, "/") {
				return domain.Settings{}, zerr.With(domain.ErrInvalidConfig, "content.searchPaths", p)
			}
		}
		s.SearchPaths = file.Content.SearchPaths
	}
	s.DatabaseURL = file.Content.Database

	if file.Artifacts.Root != "" {
		s.ArtifactsRoot = file.Artifacts.Root
	}

	s.RedisAddr = file.Events.Redis
	if file.Events.Channel != "" {
		s.EventsChannel = file.Events.Channel
	}

	if file.Watch.Debounce != "" {
		d, err := time.ParseDuration(file.Watch.Debounce)
		if err != nil || d < 0 {
			return domain.Settings{}, zerr.With(domain.ErrInvalidConfig, "watch.debounce", file.Watch.Debounce)
		}
		s.WatchDebounce = d
	}
	return s, nil
}

// validateNamespace requires every segment to be a valid identifier segment on its own.
func validateNamespace(ns string) error {
	for _, seg := range strings.Split(ns, ".") {
		if seg == "" || codec.EncodeSegment(seg) != seg {
			return zerr.With(domain.ErrInvalidConfig, "engine.namespace", ns)
		}
	}
	return nil
}

// withDefaults fills in values that depend on the discovered root.
func withDefaults(s domain.Settings, root string) domain.Settings {
	s.Root = root
	if s.ToolchainVersion == "" {
		s.ToolchainVersion = build.Version
	}
	s.ContentRoot = resolveDir(root, s.ContentRoot)
	s.ArtifactsRoot = resolveDir(root, s.ArtifactsRoot)
	return s
}

func resolveDir(root, configured string) string {
	if configured == "" {
		return filepath.Clean(root)
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(root, configured))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is discovered by the loader
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}
	return nil
}
