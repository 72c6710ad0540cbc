package extension_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/engine/extension"
)

func constant(v string) extension.Func {
	return func(context.Context, ...any) (any, error) {
		return v, nil
	}
}

func call(t *testing.T, r *extension.Registry, name string) any {
	t.Helper()
	ext, ok := r.Lookup(name)
	require.True(t, ok)
	v, err := ext.Call(context.Background())
	require.NoError(t, err)
	return v
}

func TestRegistry_PriorityTieBreak(t *testing.T) {
	t.Parallel()

	r := extension.NewRegistry()
	low := r.Register("i18n", 0, constant("low"))
	high := r.Register("i18n", 2, constant("high"))

	assert.Equal(t, "high", call(t, r, "i18n"))

	assert.True(t, r.Unregister(high))
	assert.Equal(t, "low", call(t, r, "i18n"))

	assert.True(t, r.Unregister(low))
	_, ok := r.Lookup("i18n")
	assert.False(t, ok)
	assert.Empty(t, r.Names())

	assert.False(t, r.Unregister(low), "a registration is removed only once")
	assert.False(t, r.Unregister(nil))
}

func TestRegistry_EqualPriority(t *testing.T) {
	t.Parallel()

	r := extension.NewRegistry()
	first := r.Register("join", 1, constant("first"))
	second := r.Register("join", 1, constant("second"))
	assert.Equal(t, "join", second.Name())
	assert.Equal(t, 1, second.Priority())

	assert.Equal(t, "first", call(t, r, "join"))
	r.Unregister(first)
	assert.Equal(t, "second", call(t, r, "join"))
}

func TestRegistry_Call(t *testing.T) {
	t.Parallel()

	r := extension.NewDefaultRegistry()
	assert.Equal(t, []string{extension.FormatName}, r.Names())

	v, err := r.Call(context.Background(), "format", "Hello {0}, {1}!", "Ada", 36)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, 36!", v)

	override := r.Register("format", 10, constant("overridden"))
	v, err = r.Call(context.Background(), "format", "x")
	require.NoError(t, err)
	assert.Equal(t, "overridden", v)
	r.Unregister(override)

	_, err = r.Call(context.Background(), "xss")
	assert.ErrorContains(t, err, "unknown extension")
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	r := extension.NewDefaultRegistry()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg := r.Register("format", i, constant("plugged"))
			r.Unregister(reg)
		}()
		go func() {
			defer wg.Done()
			_, ok := r.Lookup("format")
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	v, err := r.Call(context.Background(), "format", "{0}", "base")
	require.NoError(t, err)
	assert.Equal(t, "base", v)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		params  []any
		want    string
	}{
		{"no placeholders", "plain", nil, "plain"},
		{"ordered", "{0}-{1}", []any{"a", "b"}, "a-b"},
		{"repeated", "{0}{0}", []any{"x"}, "xx"},
		{"missing", "{0} and {3}", []any{"only"}, "only and "},
		{"nil", "[{0}]", []any{nil}, "[]"},
		{"not a placeholder", "{a} {0", []any{"x"}, "{a} {0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, extension.Format(tt.pattern, tt.params...))
		})
	}
}

func TestFormatExtension_Args(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	v, err := extension.FormatExtension.Call(ctx, "{1}/{0}", []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "b/a", v)

	_, err = extension.FormatExtension.Call(ctx)
	assert.ErrorContains(t, err, "invalid extension arguments")

	_, err = extension.FormatExtension.Call(ctx, 42)
	assert.ErrorContains(t, err, "invalid extension arguments")
}
