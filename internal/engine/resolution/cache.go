// Package resolution memoizes the resolution of logical names to content locations.
package resolution

import (
	"container/list"
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// Lookup performs an uncached resolution. The boolean is false when nothing was found.
type Lookup func(ctx context.Context) (domain.Location, bool, error)

type entry struct {
	location domain.Location
	found    bool
}

type result struct {
	location domain.Location
	found    bool
}

// Cache memoizes lookups per caller context and logical name.
//
// Not-found outcomes are memoized as well and stay until the next invalidation. Failed
// lookups are never memoized. When the cache is full the oldest inserted entry is
// dropped, lookups do not refresh an entry's position.
type Cache struct {
	capacity int
	filter   string
	logger   ports.Logger
	tracer   ports.Tracer

	mu         sync.RWMutex
	entries    map[string]*entry
	order      *list.List
	generation uint64

	group   singleflight.Group
	lookups atomic.Int64
}

// New creates a resolution cache holding at most capacity entries. A capacity of zero
// or less disables memoization. Deployment events invalidate the cache when their
// capability declaration contains filter.
func New(capacity int, filter string, logger ports.Logger, tracer ports.Tracer) *Cache {
	return &Cache{
		capacity: capacity,
		filter:   filter,
		logger:   logger,
		tracer:   tracer,
		entries:  make(map[string]*entry),
		order:    list.New(),
	}
}

// Enabled reports whether lookups are memoized.
func (c *Cache) Enabled() bool {
	return c.capacity > 0
}

// Resolve returns the location name resolves to for caller, running lookup only when
// no memoized outcome exists. Concurrent callers racing on the same key share a single
// lookup, which keeps running when the caller that started it is canceled.
func (c *Cache) Resolve(
	ctx context.Context,
	caller domain.CallerContext,
	name string,
	lookup Lookup,
) (domain.Location, bool, error) {
	if !c.Enabled() {
		c.lookups.Add(1)
		return lookup(ctx)
	}

	k := key(caller, name)

	c.mu.RLock()
	e, ok := c.entries[k]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return e.location, e.found, nil
	}

	// The shared lookup outlives any single caller; each caller stops waiting on its own
	// cancellation. Flights are keyed by generation so a caller arriving after an
	// invalidation never joins a lookup that started before it.
	flight := c.group.DoChan(k+"\x00"+strconv.FormatUint(gen, 10), func() (any, error) {
		return c.populate(context.WithoutCancel(ctx), k, gen, lookup)
	})
	select {
	case <-ctx.Done():
		return domain.Location{}, false, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return domain.Location{}, false, res.Err
		}
		r := res.Val.(result)
		return r.location, r.found, nil
	}
}

func (c *Cache) populate(ctx context.Context, k string, gen uint64, lookup Lookup) (result, error) {
	// A racing caller may have stored the outcome between the read and the flight.
	c.mu.RLock()
	if e, ok := c.entries[k]; ok {
		c.mu.RUnlock()
		return result{location: e.location, found: e.found}, nil
	}
	c.mu.RUnlock()

	ctx, span := c.tracer.Start(ctx, "resolution.lookup")
	defer span.End()
	span.SetAttribute("key", k)

	c.lookups.Add(1)
	loc, found, err := lookup(ctx)
	if err != nil {
		span.RecordError(err)
		return result{}, err
	}
	span.SetAttribute("found", found)

	c.mu.Lock()
	defer c.mu.Unlock()
	// Outcomes of lookups that started before an invalidation are returned but not kept.
	if c.generation == gen {
		c.insert(k, loc, found)
	}
	return result{location: loc, found: found}, nil
}

// insert must be called with the write lock held.
func (c *Cache) insert(k string, loc domain.Location, found bool) {
	if _, ok := c.entries[k]; ok {
		return
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(string))
	}
	c.order.PushBack(k)
	c.entries[k] = &entry{location: loc, found: found}
}

// Invalidate drops every memoized outcome.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.order.Init()
	c.generation++
	c.mu.Unlock()

	if n > 0 {
		c.logger.Debug(fmt.Sprintf("resolution cache cleared, %d entries dropped", n))
	}
}

// OnContentChange invalidates the cache. Any change may affect any resolution.
func (c *Cache) OnContentChange(change domain.ContentChange) {
	c.logger.Debug(fmt.Sprintf("content %s: %s", change.Kind, change.Path))
	c.Invalidate()
}

// OnDeployment invalidates the cache when the event requires the filtered capability.
// It reports whether the cache was invalidated.
func (c *Cache) OnDeployment(event domain.DeploymentEvent) bool {
	if !event.RequiresCapability(c.filter) {
		return false
	}
	c.logger.Debug("deployment of " + event.Name + " requires the scripting capability")
	c.Invalidate()
	return true
}

// Len returns the number of memoized outcomes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookups returns how many lookups were run.
func (c *Cache) Lookups() int64 {
	return c.lookups.Load()
}

func key(caller domain.CallerContext, name string) string {
	return caller.ResourceType + "\x00" + caller.ScriptPath + "\x00" + name
}
