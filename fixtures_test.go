package viewcache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// link is the canonical test item: a short link row.
type link struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	URL       string    `json:"url"`
	Active    bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l link) ItemID() string           { return l.ID }
func (l link) ItemCreatedAt() time.Time { return l.CreatedAt }

var linkFields = map[string]Field[link]{
	"isActive": {
		Get: func(l link) any { return l.Active },
		Set: func(l link, v any) link { l.Active = v.(bool); return l },
	},
	"slug": {
		Get: func(l link) any { return l.Slug },
		Set: func(l link, v any) link { l.Slug = v.(string); return l },
	},
}

// memSource serves pages from an in-memory collection with the
// (createdAt DESC, id DESC) keyset contract.
type memSource struct {
	mu    sync.Mutex
	all   []link // kept sorted
	calls atomic.Int32

	// when set, FetchPage signals entered and blocks until release is closed
	entered chan struct{}
	release chan struct{}

	failWith error
}

func newMemSource(items ...link) *memSource {
	s := &memSource{all: make([]link, len(items))}
	copy(s.all, items)
	sortLinks(s.all)
	return s
}

func sortLinks(ls []link) {
	sort.Slice(ls, func(i, j int) bool {
		if !ls[i].CreatedAt.Equal(ls[j].CreatedAt) {
			return ls[i].CreatedAt.After(ls[j].CreatedAt)
		}
		return ls[i].ID > ls[j].ID
	})
}

func (s *memSource) block() {
	s.entered = make(chan struct{}, 8)
	s.release = make(chan struct{})
}

func (s *memSource) FetchPage(_ context.Context, req PageRequest) (Page[link], error) {
	s.calls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return Page[link]{}, s.failWith
	}

	var out []link
	for _, l := range s.all {
		if req.Cursor != nil {
			after := l.CreatedAt.Before(req.Cursor.Before) ||
				(l.CreatedAt.Equal(req.Cursor.Before) && l.ID < req.Cursor.BeforeID)
			if !after {
				continue
			}
		}
		out = append(out, l)
		if len(out) == req.Limit {
			break
		}
	}

	page := Page[link]{Items: out}
	if len(out) == req.Limit {
		page.Next = CursorAfter(out[len(out)-1])
	}
	return page, nil
}

// blockingApplier hands each in-flight call to the test, which decides when
// and how it settles.
type appliedCall struct {
	id, field string
	value     any
	result    error
	release   chan struct{}
}

type blockingApplier struct {
	entered chan *appliedCall
}

func newBlockingApplier() *blockingApplier {
	return &blockingApplier{entered: make(chan *appliedCall, 8)}
}

func (a *blockingApplier) Apply(_ context.Context, id, field string, value any) error {
	call := &appliedCall{id: id, field: field, value: value, release: make(chan struct{})}
	a.entered <- call
	<-call.release
	return call.result
}

// stubApplier settles immediately with a fixed result.
type stubApplier struct {
	err   error
	calls atomic.Int32
}

func (a *stubApplier) Apply(context.Context, string, string, any) error {
	a.calls.Add(1)
	return a.err
}

// countingNotifier records toast notifications.
type countingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *countingNotifier) Success(msg string) {
	n.mu.Lock()
	n.successes = append(n.successes, msg)
	n.mu.Unlock()
}

func (n *countingNotifier) Error(msg string) {
	n.mu.Lock()
	n.errors = append(n.errors, msg)
	n.mu.Unlock()
}

func (n *countingNotifier) counts() (succ, errs int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.successes), len(n.errors)
}

// countingHooks records high-signal events.
type countingHooks struct {
	NopHooks
	mu          sync.Mutex
	staleServed int
	snapFailed  int
	suppressed  int
	superseded  int
	afterClose  int
	rolledBack  int
	targetGone  int
}

func (h *countingHooks) StaleServed(string, error) {
	h.mu.Lock()
	h.staleServed++
	h.mu.Unlock()
}
func (h *countingHooks) SnapshotWriteFailed(string, error) {
	h.mu.Lock()
	h.snapFailed++
	h.mu.Unlock()
}
func (h *countingHooks) LoadMoreSuppressed(string) {
	h.mu.Lock()
	h.suppressed++
	h.mu.Unlock()
}
func (h *countingHooks) MutationSuperseded(string, string, uint64) {
	h.mu.Lock()
	h.superseded++
	h.mu.Unlock()
}
func (h *countingHooks) ResultAfterClose(string) {
	h.mu.Lock()
	h.afterClose++
	h.mu.Unlock()
}
func (h *countingHooks) MutationRolledBack(string, string, error) {
	h.mu.Lock()
	h.rolledBack++
	h.mu.Unlock()
}
func (h *countingHooks) MutationTargetGone(string) {
	h.mu.Lock()
	h.targetGone++
	h.mu.Unlock()
}

func (h *countingHooks) get(field string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch field {
	case "staleServed":
		return h.staleServed
	case "snapFailed":
		return h.snapFailed
	case "suppressed":
		return h.suppressed
	case "superseded":
		return h.superseded
	case "afterClose":
		return h.afterClose
	case "rolledBack":
		return h.rolledBack
	case "targetGone":
		return h.targetGone
	}
	panic("unknown hook counter " + field)
}

// fakeClock is a manual clock for TTL tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fiveLinks builds the canonical scenario collection: ids A..E created at
// t=1..5 (createdAt increasing with id).
func fiveLinks() []link {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ids := []string{"A", "B", "C", "D", "E"}
	out := make([]link, 0, len(ids))
	for i, id := range ids {
		out = append(out, link{
			ID:        id,
			Slug:      "slug-" + id,
			URL:       fmt.Sprintf("https://example.com/%s", id),
			Active:    true,
			CreatedAt: base.Add(time.Duration(i+1) * time.Second),
		})
	}
	return out
}
