package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer without ANSI escape codes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*logger.Logger)
		goldenName string
	}{
		{
			name:       "info",
			log:        func(l *logger.Logger) { l.Info("compiled apps.foo.Bar") },
			goldenName: "info_basic",
		},
		{
			name:       "warn",
			log:        func(l *logger.Logger) { l.Warn("no stencil.yaml found, using defaults") },
			goldenName: "warn_basic",
		},
		{
			name:       "debug hidden by default",
			log:        func(l *logger.Logger) { l.Debug("resolution cache hit") },
			goldenName: "debug_hidden",
		},
		{
			name: "debug enabled",
			log: func(l *logger.Logger) {
				l.SetLevel(slog.LevelDebug)
				l.Debug("resolution cache hit")
			},
			goldenName: "debug_enabled",
		},
		{
			name:       "multiline",
			log:        func(l *logger.Logger) { l.Info("line1\nline2") },
			goldenName: "info_multiline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "standard error",
			err:        errors.New("simple error"),
			goldenName: "error_standard",
		},
		{
			name:       "zerr sentinel",
			err:        zerr.New("toolchain failed"),
			goldenName: "error_zerr",
		},
		{
			name: "wrapped chain",
			err: zerr.Wrap(
				zerr.Wrap(errors.New("permission denied"), "failed to write artifact"),
				"failed to compile apps.foo.Bar",
			),
			goldenName: "error_chain",
		},
		{
			name:       "multiline cause",
			err:        zerr.Wrap(errors.New("Compilation errors in /apps/x.html:\nLine 1, column 2 : oops"), "render failed"),
			goldenName: "error_multiline_cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Info("hello")
	lg.Error(errors.New("boom"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var info map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &info))
	assert.Equal(t, "INFO", info["level"])
	assert.Equal(t, "hello", info["msg"])

	var failure map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &failure))
	assert.Equal(t, "ERROR", failure["level"])
	assert.Equal(t, "boom", failure["error"])
}

func TestLogger_SetOutputNil(t *testing.T) {
	lg, _ := newTestLogger(t)
	assert.NotPanics(t, func() { lg.SetOutput(nil) })
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := slog.New(logger.NewPrettyHandler(buf, nil)).
		With("identifier", "apps.foo.Bar").
		WithGroup("cache")
	lg.Warn("stale", "size", 3)

	assert.Equal(t, "! stale identifier=apps.foo.Bar cache.size=3\n", buf.String())
}

func TestPrettyHandler_NestedGroups(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := slog.New(logger.NewPrettyHandler(buf, nil)).
		WithGroup("cache").
		With("kind", "resolution").
		WithGroup("stats")
	lg.Info("cleared", "entries", 7)

	assert.Equal(t, "cleared cache.kind=resolution cache.stats.entries=7\n", buf.String())
}
