package codec

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf16"
)

const (
	// escapeLen is the length of an escape sequence such as "__002f__".
	escapeLen = 8
	// placeholder replaces every ambiguous symbol.
	placeholder = '_'
)

// ambiguous are the symbols that all collapse into the placeholder, in decode preference order.
var ambiguous = []rune{'_', '-', '.'}

// reserved holds the words that cannot be used as identifier segments.
var reserved = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {}, "byte": {}, "case": {},
	"catch": {}, "char": {}, "class": {}, "const": {}, "continue": {}, "default": {},
	"do": {}, "double": {}, "else": {}, "enum": {}, "extends": {}, "final": {},
	"finally": {}, "float": {}, "for": {}, "goto": {}, "if": {}, "implements": {},
	"import": {}, "instanceof": {}, "int": {}, "interface": {}, "long": {}, "native": {},
	"new": {}, "package": {}, "private": {}, "protected": {}, "public": {}, "return": {},
	"short": {}, "static": {}, "strictfp": {}, "super": {}, "switch": {}, "synchronized": {},
	"this": {}, "throw": {}, "throws": {}, "transient": {}, "try": {}, "void": {},
	"volatile": {}, "while": {}, "true": {}, "false": {}, "null": {},
}

func isReserved(s string) bool {
	_, ok := reserved[s]
	return ok
}

func isAmbiguous(r rune) bool {
	return r == '_' || r == '-' || r == '.'
}

// isIdentPart reports whether r may appear in an identifier segment unescaped.
func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Sc, r) || unicode.IsNumber(r) || r == '_'
}

// escape returns the escape sequence for r. Runes outside the basic plane become two sequences.
func escape(r rune) string {
	if r > 0xFFFF {
		hi, lo := utf16.EncodeRune(r)
		return escapeUnit(hi) + escapeUnit(lo)
	}
	return escapeUnit(r)
}

func escapeUnit(u rune) string {
	return fmt.Sprintf("__%04x__", u)
}

// unescapeAt parses an escape sequence starting at s[i] and returns the code unit it encodes.
func unescapeAt(s []rune, i int) (rune, bool) {
	if i+escapeLen > len(s) {
		return 0, false
	}
	if s[i] != '_' || s[i+1] != '_' || s[i+6] != '_' || s[i+7] != '_' {
		return 0, false
	}
	for _, c := range s[i+2 : i+6] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(string(s[i+2:i+6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// escapedRuneAt decodes the rune escaped at s[i], joining surrogate pairs.
// It returns the rune and the number of source runes consumed.
func escapedRuneAt(s []rune, i int) (rune, int, bool) {
	u, ok := unescapeAt(s, i)
	if !ok {
		return 0, 0, false
	}
	if utf16.IsSurrogate(u) {
		lo, ok := unescapeAt(s, i+escapeLen)
		if !ok {
			return 0, 0, false
		}
		r := utf16.DecodeRune(u, lo)
		if r == unicode.ReplacementChar || isIdentPart(r) {
			return 0, 0, false
		}
		return r, 2 * escapeLen, true
	}
	// Only runes the encoder would have escaped are accepted, so every candidate re-encodes.
	if isIdentPart(u) || isAmbiguous(u) {
		return 0, 0, false
	}
	return u, escapeLen, true
}
