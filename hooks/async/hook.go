// Package asynchook decouples hook sinks from the hot path. Events are
// queued and delivered by worker goroutines; when the queue is full the
// event is dropped rather than blocking the data layer.
//
// usage:
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{SupersededEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	view, _ := viewcache.NewView[Link](viewcache.ViewOptions[Link]{
//	    ...
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/viewcache"
)

type Hooks struct {
	inner viewcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ viewcache.Hooks = (*Hooks)(nil)

func New(inner viewcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) StaleServed(k string, err error) {
	h.try(func() { h.inner.StaleServed(k, err) })
}
func (h *Hooks) SnapshotWriteFailed(k string, err error) {
	h.try(func() { h.inner.SnapshotWriteFailed(k, err) })
}
func (h *Hooks) SnapshotSelfHeal(k, r string) {
	h.try(func() { h.inner.SnapshotSelfHeal(k, r) })
}
func (h *Hooks) LoadMoreSuppressed(ws string) {
	h.try(func() { h.inner.LoadMoreSuppressed(ws) })
}
func (h *Hooks) MutationSuperseded(id, field string, seq uint64) {
	h.try(func() { h.inner.MutationSuperseded(id, field, seq) })
}
func (h *Hooks) ResultAfterClose(op string) {
	h.try(func() { h.inner.ResultAfterClose(op) })
}
func (h *Hooks) MutationRolledBack(id, field string, err error) {
	h.try(func() { h.inner.MutationRolledBack(id, field, err) })
}
func (h *Hooks) MutationTargetGone(id string) {
	h.try(func() { h.inner.MutationTargetGone(id) })
}
