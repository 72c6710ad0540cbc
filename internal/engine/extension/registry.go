// Package extension maintains the table of pluggable rendering extensions.
package extension

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
)

// Extension is a pluggable behavior invoked by name while rendering.
type Extension interface {
	Call(ctx context.Context, args ...any) (any, error)
}

// Func adapts a function to the Extension interface.
type Func func(ctx context.Context, args ...any) (any, error)

// Call invokes f.
func (f Func) Call(ctx context.Context, args ...any) (any, error) {
	return f(ctx, args...)
}

// Registration is a handle to a registered extension.
type Registration struct {
	name     string
	priority int
	seq      uint64
	impl     Extension
}

// Name returns the name the extension was registered under.
func (r *Registration) Name() string { return r.name }

// Priority returns the priority the extension was registered with.
func (r *Registration) Priority() int { return r.priority }

// compare orders registrations by priority, highest first, then by registration order.
// Distinct registrations never compare equal.
func compare(a, b *Registration) int {
	if c := cmp.Compare(b.priority, a.priority); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// Registry maps extension names to the highest priority implementation registered.
// Readers see an immutable snapshot that is replaced whenever a registration changes.
type Registry struct {
	mu     sync.Mutex
	seq    uint64
	byName map[string][]*Registration

	snapshot atomic.Pointer[map[string]Extension]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string][]*Registration)}
	empty := map[string]Extension{}
	r.snapshot.Store(&empty)
	return r
}

// Register adds impl under name with the given priority.
func (r *Registry) Register(name string, priority int, impl Extension) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	reg := &Registration{name: name, priority: priority, seq: r.seq, impl: impl}
	regs := r.byName[name]
	i, _ := slices.BinarySearchFunc(regs, reg, compare)
	r.byName[name] = slices.Insert(regs, i, reg)
	r.publish()
	return reg
}

// Unregister removes the registration. It reports whether the registration was present.
func (r *Registry) Unregister(reg *Registration) bool {
	if reg == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.byName[reg.name]
	i := slices.Index(regs, reg)
	if i < 0 {
		return false
	}
	regs = slices.Delete(regs, i, i+1)
	if len(regs) == 0 {
		delete(r.byName, reg.name)
	} else {
		r.byName[reg.name] = regs
	}
	r.publish()
	return true
}

// publish must be called with mu held.
func (r *Registry) publish() {
	next := make(map[string]Extension, len(r.byName))
	for name, regs := range r.byName {
		next[name] = regs[0].impl
	}
	r.snapshot.Store(&next)
}

// Lookup returns the highest priority extension registered under name.
func (r *Registry) Lookup(name string) (Extension, bool) {
	ext, ok := (*r.snapshot.Load())[name]
	return ext, ok
}

// Names returns the sorted names of all registered extensions.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(*r.snapshot.Load()))
}

// Call invokes the extension registered under name.
func (r *Registry) Call(ctx context.Context, name string, args ...any) (any, error) {
	ext, ok := r.Lookup(name)
	if !ok {
		return nil, zerr.With(domain.ErrUnknownExtension, "extension", name)
	}
	return ext.Call(ctx, args...)
}
