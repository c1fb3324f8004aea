package viewcache

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/viewcache/internal/util"
)

// SidebarOptions tune a Sidebar. Name, Fetch and Cache are required.
type SidebarOptions[V any] struct {
	// Name isolates this payload kind in the key space, e.g. "tools",
	// "workspaces".
	Name string
	// Params identify the concrete payload (workspace id, user id, ...).
	// The cache key is derived from them; parameter order is irrelevant.
	Params map[string]string
	Fetch  FetchFunc[V]

	// Cache should be constructed with the Snapshot as its SnapshotWriter
	// so successful fetches echo through automatically.
	Cache    *Cache[V]
	Snapshot *Snapshot[V] // optional; enables FirstPaint
}

// Sidebar serves one small config payload (enabled tools, workspace list)
// for a sidebar: a last-known value for instant first paint, then fresh
// reads through the coalescing cache.
type Sidebar[V any] struct {
	key   string
	fetch FetchFunc[V]
	cache *Cache[V]
	snap  *Snapshot[V]
}

func NewSidebar[V any](opts SidebarOptions[V]) (*Sidebar[V], error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("viewcache: sidebar name is required")
	}
	if opts.Fetch == nil {
		return nil, fmt.Errorf("viewcache: sidebar fetch is required")
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("viewcache: sidebar cache is required")
	}
	return &Sidebar[V]{
		key:   util.ConfigKey("cfg:"+opts.Name, opts.Params),
		fetch: opts.Fetch,
		cache: opts.Cache,
		snap:  opts.Snapshot,
	}, nil
}

// FirstPaint returns the last persisted value and its write time, for
// rendering an initial possibly-stale state before Load's first fetch
// resolves. Never consulted once a real value is cached; never proof of
// freshness. Absent (or failing) snapshots just mean "paint empty".
func (s *Sidebar[V]) FirstPaint(ctx context.Context) (V, time.Time, bool) {
	if s.snap == nil {
		var zero V
		return zero, time.Time{}, false
	}
	v, at, ok, err := s.snap.ReadLastKnown(ctx, s.key)
	if err != nil || !ok {
		var zero V
		return zero, time.Time{}, false
	}
	return v, at, true
}

// Load returns the payload through the coalescing cache: fresh cached
// values come back without a network call, concurrent misses share one
// fetch, and a failed refresh falls back to the stale value when one
// exists.
func (s *Sidebar[V]) Load(ctx context.Context) (V, error) {
	return s.cache.Get(ctx, s.key, s.fetch)
}

// Refresh drops the cached value and fetches anew.
func (s *Sidebar[V]) Refresh(ctx context.Context) (V, error) {
	s.cache.Invalidate(s.key)
	return s.cache.Get(ctx, s.key, s.fetch)
}

// Key exposes the derived cache key (for invalidation fan-out).
func (s *Sidebar[V]) Key() string { return s.key }
