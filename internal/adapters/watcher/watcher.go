package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ChangeFeed = (*Watcher)(nil)

var skipDirectories = map[string]bool{
	".git":                true,
	domain.StencilDirName: true,
	"node_modules":        true,
}

const eventChannelBuffer = 100

// Watcher delivers changes below a content root using fsnotify. Paths are reported as
// absolute content paths, relative to the root.
type Watcher struct {
	root      string
	logger    ports.Logger
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	filter    domain.ChangeFilter

	events chan domain.ContentChange
	done   chan struct{}
	mu     sync.Mutex
	closed bool
	once   sync.Once
}

// NewWatcher creates a watcher for the content root. Changes arriving within window
// are delivered as one batch.
func NewWatcher(root string, window time.Duration, logger ports.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatcherStartFailed.Error())
	}
	w := &Watcher{
		root:      root,
		logger:    logger,
		fsWatcher: fw,
		events:    make(chan domain.ContentChange, eventChannelBuffer),
		done:      make(chan struct{}),
	}
	w.debouncer = NewDebouncer(window, w.emit)
	return w, nil
}

// Start watches the content root recursively.
func (w *Watcher) Start(ctx context.Context, filter domain.ChangeFilter) error {
	w.filter = filter
	for dir := range w.directories(w.root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherStartFailed.Error()), "path", dir)
		}
	}
	go w.processEvents(ctx)
	return nil
}

// Stop stops watching. Pending changes are delivered before the event stream ends.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of content changes.
func (w *Watcher) Events() iter.Seq[domain.ContentChange] {
	return func(yield func(domain.ContentChange) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			change, ok := w.convert(event)
			if !ok {
				continue
			}
			w.debouncer.Add(change)

			if change.Kind == domain.ChangeAdded {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDirectories[info.Name()] {
					for dir := range w.directories(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(fmt.Sprintf("watcher: file system error: %v", err))
		}
	}
}

func (w *Watcher) shutdown() {
	w.once.Do(func() {
		w.debouncer.Flush()
		close(w.done)
		w.mu.Lock()
		w.closed = true
		close(w.events)
		w.mu.Unlock()
	})
}

func (w *Watcher) emit(changes []domain.ContentChange) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	for _, c := range changes {
		if !w.filter.Matches(c) {
			continue
		}
		select {
		case w.events <- c:
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) convert(event fsnotify.Event) (domain.ContentChange, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return domain.ContentChange{}, false
	}
	change := domain.ContentChange{Path: "/" + filepath.ToSlash(rel)}

	switch {
	case event.Has(fsnotify.Create):
		change.Kind = domain.ChangeAdded
	case event.Has(fsnotify.Write):
		change.Kind = domain.ChangeModified
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change.Kind = domain.ChangeRemoved
	default:
		return domain.ContentChange{}, false
	}
	return change, true
}
