// Package codec maps hierarchical content paths to flat dotted identifiers and back.
//
// Encoding is lossy: hyphen, underscore and period all become an underscore, so decoding
// yields every path that encodes to the given identifier.
package codec

import (
	"strings"
	"unicode"

	"go.trai.ch/stencil/internal/core/domain"
)

// MaxCandidates bounds the number of paths Decode returns for a single identifier.
const MaxCandidates = 1 << 16

// Encode converts an absolute or relative slash separated path into an identifier.
// Empty segments are skipped. A path without segments is rejected.
func Encode(path string) (string, error) {
	segments := strings.Split(path, "/")
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			continue
		}
		if s == "." || s == ".." {
			return "", &domain.CodecError{Input: path, Err: domain.ErrRelativeSegment}
		}
		parts = append(parts, EncodeSegment(s))
	}
	if len(parts) == 0 {
		return "", &domain.CodecError{Input: path, Err: domain.ErrEmptyPath}
	}
	return strings.Join(parts, "."), nil
}

// EncodeSegment converts a single path segment into an identifier segment.
func EncodeSegment(segment string) string {
	var b strings.Builder
	b.Grow(len(segment) + 1)
	for i, r := range segment {
		if i == 0 && unicode.IsNumber(r) {
			b.WriteRune(placeholder)
		}
		switch {
		case isAmbiguous(r):
			b.WriteRune(placeholder)
		case isIdentPart(r):
			b.WriteRune(r)
		default:
			b.WriteString(escape(r))
		}
	}
	out := b.String()
	if isReserved(out) {
		out += string(placeholder)
	}
	return out
}

// Decode returns every path that encodes to identifier, each with a leading slash.
// The first candidate reads escape artifacts as artifacts and every placeholder as an
// underscore. An identifier with a segment no path encodes to has no candidates.
func Decode(identifier string) ([]string, error) {
	if identifier == "" {
		return nil, &domain.CodecError{Input: identifier, Err: domain.ErrEmptyIdentifier}
	}
	segments := strings.Split(identifier, ".")
	alternatives := make([][]string, 0, len(segments))
	total := 1
	for _, s := range segments {
		if s == "" {
			return nil, &domain.CodecError{Input: identifier, Err: domain.ErrEmptySegment}
		}
		alts, ok := decodeSegment(s, MaxCandidates)
		if !ok {
			return nil, &domain.CodecError{Input: identifier, Err: domain.ErrTooManyCandidates}
		}
		if len(alts) == 0 {
			return nil, nil
		}
		total *= len(alts)
		if total > MaxCandidates {
			return nil, &domain.CodecError{Input: identifier, Err: domain.ErrTooManyCandidates}
		}
		alternatives = append(alternatives, alts)
	}

	out := make([]string, 0, total)
	var walk func(i int, prefix string)
	walk = func(i int, prefix string) {
		if i == len(alternatives) {
			out = append(out, prefix)
			return
		}
		for _, a := range alternatives[i] {
			walk(i+1, prefix+"/"+a)
		}
	}
	walk(0, "")
	return out, nil
}

// decodeSegment lists the path segments that encode to segment. It reports false when
// more than limit readings exist.
func decodeSegment(segment string, limit int) ([]string, bool) {
	runes := []rune(segment)
	var bodies [][]rune

	// A trailing placeholder after a reserved word was added by the encoder.
	if n := len(runes); n > 1 && runes[n-1] == placeholder && isReserved(string(runes[:n-1])) {
		bodies = append(bodies, runes[:n-1])
	}
	// So was a leading placeholder before a number.
	if len(runes) > 1 && runes[0] == placeholder && unicode.IsNumber(runes[1]) {
		bodies = append(bodies, runes[1:])
	}
	bodies = append(bodies, runes)

	seen := make(map[string]struct{})
	var out []string
	for _, body := range bodies {
		readings, ok := expand(body, limit)
		if !ok {
			return nil, false
		}
		for _, r := range readings {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			if r == "." || r == ".." || strings.ContainsRune(r, '/') || EncodeSegment(r) != segment {
				continue
			}
			out = append(out, r)
		}
	}
	return out, true
}

// expand enumerates the readings of body: every escape sequence either decodes to its rune
// or stays literal, and every placeholder becomes each ambiguous symbol in turn.
func expand(body []rune, limit int) ([]string, bool) {
	var out []string
	buf := make([]rune, 0, len(body))
	exceeded := false

	var walk func(i int)
	walk = func(i int) {
		if exceeded {
			return
		}
		if i == len(body) {
			if len(out) == limit {
				exceeded = true
				return
			}
			out = append(out, string(buf))
			return
		}
		mark := len(buf)
		if r, n, ok := escapedRuneAt(body, i); ok {
			buf = append(buf, r)
			walk(i + n)
			buf = buf[:mark]
		}
		if body[i] == placeholder {
			for _, a := range ambiguous {
				buf = append(buf, a)
				walk(i + 1)
				buf = buf[:mark]
			}
			return
		}
		buf = append(buf, body[i])
		walk(i + 1)
		buf = buf[:mark]
	}
	walk(0)
	return out, !exceeded
}
