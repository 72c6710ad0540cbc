package extension

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
)

// FormatName is the name of the built-in format extension.
const FormatName = "format"

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// Format replaces every {n} placeholder of pattern with the n-th parameter. Placeholders
// without a parameter become empty.
func Format(pattern string, params ...any) string {
	return placeholder.ReplaceAllStringFunc(pattern, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n >= len(params) || params[n] == nil {
			return ""
		}
		return fmt.Sprint(params[n])
	})
}

// FormatExtension exposes Format as an extension. The first argument is the pattern, the
// remaining arguments, or a single []any, are the parameters.
var FormatExtension = Func(func(_ context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, zerr.With(domain.ErrInvalidExtensionArgs, "extension", FormatName)
	}
	pattern, ok := args[0].(string)
	if !ok {
		return nil, zerr.With(zerr.With(domain.ErrInvalidExtensionArgs, "extension", FormatName), "pattern", fmt.Sprintf("%T", args[0]))
	}
	params := args[1:]
	if len(params) == 1 {
		if list, ok := params[0].([]any); ok {
			params = list
		}
	}
	return Format(pattern, params...), nil
})

// NewDefaultRegistry creates a registry holding the built-in extensions at priority 0.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FormatName, 0, FormatExtension)
	return r
}
