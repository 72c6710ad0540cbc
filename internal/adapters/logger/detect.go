package logger

import (
	"os"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// Format is the encoding of log records.
type Format int

const (
	// FormatText writes human-readable records.
	FormatText Format = iota
	// FormatJSON writes one JSON object per record.
	FormatJSON
)

// DetectFormat returns the recommended format for logs written to f.
// Terminals get text, pipes and CI runs get JSON.
func DetectFormat(f *os.File) Format {
	isTTY := f != nil && term.IsTerminal(int(f.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return FormatJSON
	}
	return FormatText
}

// ResolveFormat applies a user choice to the detected format.
// choice should be one of: "auto", "text", "json", or empty.
func ResolveFormat(detected Format, choice string) (Format, error) {
	switch choice {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "auto", "":
		return detected, nil
	default:
		return detected, zerr.With(domain.ErrInvalidLogFormat, "format", choice)
	}
}
