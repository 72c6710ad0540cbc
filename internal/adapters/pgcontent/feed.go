package pgcontent

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ChangeFeed = (*Feed)(nil)

const eventChannelBuffer = 100

// Feed delivers content changes announced by the database trigger through LISTEN/NOTIFY.
type Feed struct {
	pool   *pgxpool.Pool
	logger ports.Logger
	events chan domain.ContentChange

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeed creates a change feed on the pool.
func NewFeed(pool *pgxpool.Pool, logger ports.Logger) *Feed {
	return &Feed{
		pool:   pool,
		logger: logger,
		events: make(chan domain.ContentChange, eventChannelBuffer),
	}
}

// Start acquires a dedicated connection and listens for changes passing the filter.
func (f *Feed) Start(ctx context.Context, filter domain.ChangeFilter) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatcherStartFailed.Error())
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		conn.Release()
		return zerr.Wrap(err, domain.ErrWatcherStartFailed.Error())
	}

	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.done = make(chan struct{})
	f.mu.Unlock()

	go f.listen(ctx, conn, filter)
	return nil
}

func (f *Feed) listen(ctx context.Context, conn *pgxpool.Conn, filter domain.ChangeFilter) {
	defer close(f.done)
	defer close(f.events)
	defer conn.Release()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.logger.Warn(fmt.Sprintf("content feed stopped: %v", err))
			}
			return
		}
		change, ok := ParseNotification(n.Payload)
		if !ok {
			f.logger.Warn("ignoring malformed content notification " + n.Payload)
			continue
		}
		if !filter.Matches(change) {
			continue
		}
		select {
		case f.events <- change:
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops listening and waits for the listener to release its connection.
func (f *Feed) Stop() error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Events returns an iterator of content changes.
func (f *Feed) Events() iter.Seq[domain.ContentChange] {
	return func(yield func(domain.ContentChange) bool) {
		for event := range f.events {
			if !yield(event) {
				return
			}
		}
	}
}

// ParseNotification decodes a "<kind>:<path>" payload.
func ParseNotification(payload string) (domain.ContentChange, bool) {
	kind, p, ok := strings.Cut(payload, ":")
	if !ok || !strings.HasPrefix(p, "/") {
		return domain.ContentChange{}, false
	}
	change := domain.ContentChange{Path: p}
	switch kind {
	case "added":
		change.Kind = domain.ChangeAdded
	case "modified":
		change.Kind = domain.ChangeModified
	case "removed":
		change.Kind = domain.ChangeRemoved
	default:
		return domain.ContentChange{}, false
	}
	return change, true
}
