// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.trai.ch/stencil/internal/core/ports"
)

// messager describes an error that can report its own message without the chain.
// zerr errors provide it; other errors fall back to Error().
type messager interface {
	Message() string
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	level    *slog.LevelVar
	jsonMode bool
	output   io.Writer
}

// New creates a new Logger writing pretty output to stderr at info level.
func New() ports.Logger {
	l := &Logger{
		level:  &slog.LevelVar{},
		output: os.Stderr,
	}
	l.rebuild()
	return l
}

// SetOutput updates the logger's output destination.
// It preserves the current JSON mode and level. If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

// SetLevel changes the minimum level that is written.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// rebuild must be called with mu held.
func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: l.level}
	var handler slog.Handler
	if l.jsonMode {
		handler = slog.NewJSONHandler(l.output, opts)
	} else {
		handler = NewPrettyHandler(l.output, opts)
	}
	l.logger = slog.New(handler)
}

// Debug logs a diagnostic message.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error together with its chain of causes.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err == nil {
		return
	}

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}

	l.logger.Error(formatChain(collectMessages(err)))
}

// collectMessages walks the error chain. zerr layers contribute their own message,
// the first foreign error contributes its full text and ends the walk.
func collectMessages(err error) []string {
	var messages []string
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			messages = append(messages, current.Error())
			break
		}
		messages = append(messages, m.Message())
		current = errors.Unwrap(current)
	}
	return messages
}

func formatChain(messages []string) string {
	var lines []string
	for i, msg := range messages {
		parts := strings.Split(msg, "\n")
		if i == 0 {
			lines = append(lines, "Error: "+parts[0])
			for _, p := range parts[1:] {
				lines = append(lines, "       "+p)
			}
			continue
		}
		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+parts[0])
		for _, p := range parts[1:] {
			lines = append(lines, "      "+p)
		}
	}
	return strings.Join(lines, "\n")
}
