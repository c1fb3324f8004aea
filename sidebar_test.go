package viewcache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/unkn0wn-root/viewcache/codec"
	"github.com/unkn0wn-root/viewcache/provider/memory"
)

type sidebarPayload struct {
	Tools []string `json:"tools"`
}

type sidebarKit struct {
	src   *sidebarFetcher
	snap  *Snapshot[sidebarPayload]
	cache *Cache[sidebarPayload]
	mp    *memory.Provider
}

type sidebarFetcher struct {
	mu    sync.Mutex
	calls int
	next  sidebarPayload
	err   error
}

func (f *sidebarFetcher) fetch(context.Context) (sidebarPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return sidebarPayload{}, f.err
	}
	return f.next, nil
}

func (f *sidebarFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newSidebarKit(t *testing.T) *sidebarKit {
	t.Helper()
	mp := memory.New()
	snap, err := NewSnapshot[sidebarPayload](SnapshotOptions[sidebarPayload]{
		Namespace: "tools",
		Provider:  mp,
		Codec:     codec.JSON[sidebarPayload]{},
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return &sidebarKit{
		src:   &sidebarFetcher{next: sidebarPayload{Tools: []string{"links", "qr"}}},
		snap:  snap,
		cache: NewCache[sidebarPayload](CacheOptions[sidebarPayload]{Snapshot: snap}),
		mp:    mp,
	}
}

func (k *sidebarKit) sidebar(t *testing.T) *Sidebar[sidebarPayload] {
	t.Helper()
	s, err := NewSidebar[sidebarPayload](SidebarOptions[sidebarPayload]{
		Name:     "tools",
		Params:   map[string]string{"workspaceId": "ws-1"},
		Fetch:    k.src.fetch,
		Cache:    k.cache,
		Snapshot: k.snap,
	})
	if err != nil {
		t.Fatalf("NewSidebar: %v", err)
	}
	return s
}

func TestSidebarFirstPaintEmptyThenPersisted(t *testing.T) {
	ctx := context.Background()
	kit := newSidebarKit(t)
	s := kit.sidebar(t)

	if _, _, ok := s.FirstPaint(ctx); ok {
		t.Fatal("fresh store should paint empty")
	}

	// a successful Load echoes through the snapshot...
	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// ...so a later session (same store) paints the last-known value
	v, at, ok := s.FirstPaint(ctx)
	if !ok {
		t.Fatal("expected a persisted value after Load")
	}
	if len(v.Tools) != 2 || v.Tools[0] != "links" {
		t.Fatalf("unexpected payload: %+v", v)
	}
	if at.IsZero() {
		t.Fatal("write timestamp missing")
	}
}

func TestSidebarLoadCoalescesAndCaches(t *testing.T) {
	ctx := context.Background()
	kit := newSidebarKit(t)
	s := kit.sidebar(t)

	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if got := kit.src.callCount(); got != 1 {
		t.Fatalf("second Load within TTL must be served from cache, got %d fetches", got)
	}
}

func TestSidebarRefreshRefetches(t *testing.T) {
	ctx := context.Background()
	kit := newSidebarKit(t)
	s := kit.sidebar(t)

	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	kit.src.mu.Lock()
	kit.src.next = sidebarPayload{Tools: []string{"links", "qr", "pages"}}
	kit.src.mu.Unlock()

	v, err := s.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(v.Tools) != 3 {
		t.Fatalf("Refresh served the old value: %+v", v)
	}
	if got := kit.src.callCount(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestSidebarFirstPaintSurvivesFetchOutage(t *testing.T) {
	ctx := context.Background()
	kit := newSidebarKit(t)
	s := kit.sidebar(t)

	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// simulate a new session over the same store with the backend down
	kit2 := &sidebarKit{
		src:   &sidebarFetcher{err: errors.New("backend down")},
		snap:  kit.snap,
		cache: NewCache[sidebarPayload](CacheOptions[sidebarPayload]{Snapshot: kit.snap}),
		mp:    kit.mp,
	}
	s2 := kit2.sidebar(t)

	v, _, ok := s2.FirstPaint(ctx)
	if !ok || len(v.Tools) != 2 {
		t.Fatalf("FirstPaint should serve the persisted value: ok=%v %+v", ok, v)
	}
	if _, err := s2.Load(ctx); err == nil {
		t.Fatal("Load with an empty cache and a failing fetch must error")
	}
}

func TestSidebarKeyIgnoresParamOrder(t *testing.T) {
	kit := newSidebarKit(t)
	a, err := NewSidebar[sidebarPayload](SidebarOptions[sidebarPayload]{
		Name:   "tools",
		Params: map[string]string{"workspaceId": "ws-1", "userId": "u-9"},
		Fetch:  kit.src.fetch,
		Cache:  kit.cache,
	})
	if err != nil {
		t.Fatalf("NewSidebar: %v", err)
	}
	b, err := NewSidebar[sidebarPayload](SidebarOptions[sidebarPayload]{
		Name:   "tools",
		Params: map[string]string{"userId": "u-9", "workspaceId": "ws-1"},
		Fetch:  kit.src.fetch,
		Cache:  kit.cache,
	})
	if err != nil {
		t.Fatalf("NewSidebar: %v", err)
	}
	if a.Key() != b.Key() {
		t.Fatalf("key depends on map iteration order: %q vs %q", a.Key(), b.Key())
	}

	c, err := NewSidebar[sidebarPayload](SidebarOptions[sidebarPayload]{
		Name:   "tools",
		Params: map[string]string{"workspaceId": "ws-2"},
		Fetch:  kit.src.fetch,
		Cache:  kit.cache,
	})
	if err != nil {
		t.Fatalf("NewSidebar: %v", err)
	}
	if a.Key() == c.Key() {
		t.Fatal("different params must derive different keys")
	}
}

func TestSidebarOptionValidation(t *testing.T) {
	kit := newSidebarKit(t)
	cases := []SidebarOptions[sidebarPayload]{
		{Fetch: kit.src.fetch, Cache: kit.cache},          // no name
		{Name: "tools", Cache: kit.cache},                 // no fetch
		{Name: "tools", Fetch: kit.src.fetch},             // no cache
	}
	for i, opts := range cases {
		if _, err := NewSidebar[sidebarPayload](opts); err == nil {
			t.Fatalf("case %d: expected constructor error", i)
		}
	}
}
