package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

const (
	warnSymbol  = "!"
	errorSymbol = "✗"

	colorDebug = "#64748B"
	colorInfo  = "#94A3B8"
	colorWarn  = "#EAB308"
	colorError = "#EF4444"
)

// PrettyHandler is a slog.Handler that produces human-readable, colored output.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []string
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
// Colors are disabled when NO_COLOR is set or w is not a terminal.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	var outOpts []termenv.OutputOption
	if os.Getenv("NO_COLOR") != "" {
		outOpts = append(outOpts, termenv.WithProfile(termenv.Ascii))
	}

	return &PrettyHandler{
		out:   termenv.NewOutput(w, outOpts...),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	color := colorInfo
	switch {
	case r.Level >= slog.LevelError:
		msg = errorSymbol + " " + msg
		color = colorError
	case r.Level >= slog.LevelWarn:
		msg = warnSymbol + " " + msg
		color = colorWarn
	case r.Level < slog.LevelInfo:
		color = colorDebug
	}

	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	attrParts = append(attrParts, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		attrParts = append(attrParts, formatAttr(h.group, attr))
		return true
	})
	if len(attrParts) > 0 {
		msg += " " + strings.Join(attrParts, " ")
	}

	styled := h.out.String(msg).Foreground(h.out.Color(color))
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended. The attributes
// are qualified by the groups opened so far.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]string, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, attr := range attrs {
		newAttrs = append(newAttrs, formatAttr(h.group, attr))
	}

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new Handler that qualifies later attributes with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: group,
	}
}

func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}
