package viewcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SnapshotWriter receives a best-effort durable copy of every successfully
// fetched value. Snapshot[V] implements it; tests may substitute fakes.
type SnapshotWriter[V any] interface {
	Write(ctx context.Context, key string, v V) error
}

// CacheOptions tune a Cache. All fields are optional.
type CacheOptions[V any] struct {
	TTL      time.Duration // 0 => 1m
	Snapshot SnapshotWriter[V]
	Logger   Logger
	Hooks    Hooks
	Clock    func() time.Time // injectable for tests; nil => time.Now
}

type cacheEntry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Cache is a key -> value read-through cache with TTL freshness and in-flight
// request coalescing: N concurrent Get calls for the same stale key trigger
// exactly one fetch and all receive its outcome.
//
// On fetch failure the previously cached value, if any, is served instead
// (stale-but-available); the error is returned only when nothing is cached.
// Failures never overwrite a cached value and never reach the snapshot.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]

	sf    singleflight.Group
	ttl   time.Duration
	snap  SnapshotWriter[V]
	log   Logger
	hooks Hooks
	now   func() time.Time
}

// NewCache builds a session-scoped cache. Construct one per logical session;
// there is no package-level instance.
func NewCache[V any](opts CacheOptions[V]) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		snap:    opts.Snapshot,
	}
	c.ttl = coalesce[time.Duration](opts.TTL, time.Minute)
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.Clock != nil {
		c.now = opts.Clock
	} else {
		c.now = time.Now
	}
	return c
}

// Get returns the value for key. Fresh entries are served without invoking
// fetch; a stale or missing entry triggers exactly one fetch shared by all
// concurrent callers of the same key.
func (c *Cache[V]) Get(ctx context.Context, key string, fetch FetchFunc[V]) (V, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}

	res, err, _ := c.sf.Do(key, func() (any, error) {
		// another caller may have filled the entry while we queued
		if v, ok := c.fresh(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		if c.snap != nil {
			if werr := c.snap.Write(ctx, key, v); werr != nil {
				// persistence is best-effort; the fetch still succeeded
				c.hooks.SnapshotWriteFailed(key, werr)
				c.log.Warn("snapshot write failed", Fields{"key": key, "err": werr})
			}
		}
		return v, nil
	})
	if err != nil {
		if stale, ok := c.lastCached(key); ok {
			c.hooks.StaleServed(key, err)
			c.log.Debug("fetch failed, serving stale value", Fields{"key": key, "err": err})
			return stale, nil
		}
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Peek returns the cached value only if it is still fresh. It never fetches.
func (c *Cache[V]) Peek(key string) (V, bool) {
	return c.fresh(key)
}

// Invalidate drops the cached entry so the next Get refetches. An in-flight
// fetch for the key is left to complete; its result will simply carry the
// old fetch time.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.log.Debug("invalidated key", Fields{"key": key})
}

func (c *Cache[V]) fresh(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// lastCached returns the entry regardless of freshness.
func (c *Cache[V]) lastCached(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) store(key string, v V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: v, fetchedAt: c.now()}
	c.mu.Unlock()
}
