package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/watcher"
	"go.trai.ch/stencil/internal/core/domain"
)

func change(p string, kind domain.ChangeKind) domain.ContentChange {
	return domain.ContentChange{Path: p, Kind: kind}
}

type batches struct {
	mu  sync.Mutex
	all [][]domain.ContentChange
}

func (b *batches) add(changes []domain.ContentChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, changes)
}

func (b *batches) get() [][]domain.ContentChange {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.all
}

func TestDebouncer_Coalesces(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got batches
		d := watcher.NewDebouncer(100*time.Millisecond, got.add)

		d.Add(change("/apps/b.html", domain.ChangeModified))
		d.Add(change("/apps/a.html", domain.ChangeAdded))
		d.Add(change("/apps/a.html", domain.ChangeModified))
		d.Add(change("/apps/b.html", domain.ChangeRemoved))

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Len(t, got.get(), 1)
		assert.Equal(t, []domain.ContentChange{
			change("/apps/a.html", domain.ChangeAdded),
			change("/apps/b.html", domain.ChangeRemoved),
		}, got.get()[0])
	})
}

func TestDebouncer_TimerReset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got batches
		d := watcher.NewDebouncer(100*time.Millisecond, got.add)

		d.Add(change("/apps/a.html", domain.ChangeModified))
		time.Sleep(50 * time.Millisecond)
		d.Add(change("/apps/b.html", domain.ChangeModified))
		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, got.get())

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		require.Len(t, got.get(), 1)
		assert.Len(t, got.get()[0], 2)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got batches
		d := watcher.NewDebouncer(100*time.Millisecond, got.add)

		d.Flush()
		assert.Empty(t, got.get())

		d.Add(change("/apps/a.html", domain.ChangeRemoved))
		d.Flush()
		require.Len(t, got.get(), 1)

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, got.get(), 1, "flushed changes are not delivered twice")
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(50*time.Millisecond, nil)
		d.Add(change("/apps/a.html", domain.ChangeAdded))
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		d.Flush()
	})
}
