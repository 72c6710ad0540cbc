// Package watcher implements the content change feed of the filesystem repository.
package watcher

import (
	"slices"
	"strings"
	"sync"
	"time"
	"unique"

	"go.trai.ch/stencil/internal/core/domain"
)

// Debouncer coalesces rapid content changes into batches. Within a batch every path is
// reported once, with the kind describing its net change.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[unique.Handle[string]]domain.ChangeKind
	timer    *time.Timer
	window   time.Duration
	callback func(changes []domain.ContentChange)
}

// NewDebouncer creates a debouncer calling callback once no change arrived for window.
func NewDebouncer(window time.Duration, callback func(changes []domain.ContentChange)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]domain.ChangeKind),
		window:   window,
		callback: callback,
	}
}

// Add records a change and restarts the debounce window.
func (d *Debouncer) Add(change domain.ContentChange) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handle := unique.Make(change.Path)
	d.pending[handle] = merge(d.pending[handle], change.Kind)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// merge keeps a node that was created and then written as added.
func merge(prev, next domain.ChangeKind) domain.ChangeKind {
	if prev == domain.ChangeAdded && next == domain.ChangeModified {
		return domain.ChangeAdded
	}
	return next
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	changes := d.drain()
	d.mu.Unlock()

	if len(changes) > 0 && d.callback != nil {
		d.callback(changes)
	}
}

// Flush delivers all pending changes immediately and blocks until the callback returns.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// The timer already fired and delivers the batch.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	changes := d.drain()
	d.mu.Unlock()

	if len(changes) > 0 && d.callback != nil {
		d.callback(changes)
	}
}

// drain must be called with mu held.
func (d *Debouncer) drain() []domain.ContentChange {
	if len(d.pending) == 0 {
		return nil
	}
	changes := make([]domain.ContentChange, 0, len(d.pending))
	for handle, kind := range d.pending {
		changes = append(changes, domain.ContentChange{Path: handle.Value(), Kind: kind})
	}
	clear(d.pending)
	slices.SortFunc(changes, func(a, b domain.ContentChange) int {
		return strings.Compare(a.Path, b.Path)
	})
	return changes
}
