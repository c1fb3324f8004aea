package viewcache

import (
	"context"
	"fmt"
	"sync"
)

// PaginatorOptions tune a Paginator. Source is required.
type PaginatorOptions[T Item] struct {
	Source      Source[T]
	WorkspaceID string
	PageSize    int // 0 => 50
	Logger      Logger
	Hooks       Hooks

	// Alive is consulted after every fetch settles; when it reports false
	// the result is discarded instead of applied. View wires its own
	// liveness here. nil => always alive.
	Alive func() bool
}

// Paginator incrementally loads an ordered collection with keyset cursors
// and owns the loaded sequence.
//
// The sequence is append-only: pages are only ever appended, never removed
// or reordered by later loads (LoadFirst starts a fresh sequence). Every
// update swaps in a new slice, so a slice handed out by Items remains valid
// and unchanging forever.
//
// At most one load is in flight at a time: LoadMore while a load is pending
// is a no-op, which is what makes rapid repeated "load more" clicks safe.
type Paginator[T Item] struct {
	mu          sync.Mutex
	items       []T // immutable snapshot, swapped wholesale
	next        *Cursor
	loaded      bool
	loadingMore bool

	src   Source[T]
	ws    string
	limit int
	log   Logger
	hooks Hooks
	alive func() bool
}

func NewPaginator[T Item](opts PaginatorOptions[T]) (*Paginator[T], error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("viewcache: paginator source is required")
	}
	p := &Paginator[T]{
		src: opts.Source,
		ws:  opts.WorkspaceID,
	}
	p.limit = coalesce[int](opts.PageSize, 50)
	p.log = coalesce[Logger](opts.Logger, NopLogger{})
	p.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.Alive != nil {
		p.alive = opts.Alive
	} else {
		p.alive = func() bool { return true }
	}
	return p, nil
}

// LoadFirst fetches the first page and starts a fresh sequence. It shares
// the in-flight guard with LoadMore; a call while a load is pending is a
// no-op returning (nil, nil).
func (p *Paginator[T]) LoadFirst(ctx context.Context) ([]T, error) {
	return p.load(ctx, true)
}

// LoadMore fetches the page after the last loaded item and appends it.
// No-op when a load is already in flight or there are no more pages.
// Returns the newly appended items.
func (p *Paginator[T]) LoadMore(ctx context.Context) ([]T, error) {
	return p.load(ctx, false)
}

func (p *Paginator[T]) load(ctx context.Context, first bool) ([]T, error) {
	p.mu.Lock()
	if p.loadingMore {
		p.mu.Unlock()
		p.hooks.LoadMoreSuppressed(p.ws)
		p.log.Debug("load suppressed, previous still in flight", Fields{"workspace": p.ws})
		return nil, nil
	}
	if !first && p.loaded && p.next == nil {
		p.mu.Unlock()
		return nil, nil // no more pages
	}
	p.loadingMore = true
	var cur *Cursor
	if !first {
		cur = p.next
	}
	p.mu.Unlock()

	page, err := p.src.FetchPage(ctx, PageRequest{
		WorkspaceID: p.ws,
		Limit:       p.limit,
		Cursor:      cur,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadingMore = false
	if err != nil {
		return nil, err
	}
	if !p.alive() {
		p.hooks.ResultAfterClose("load")
		return nil, nil
	}

	if first {
		fresh := make([]T, len(page.Items))
		copy(fresh, page.Items)
		p.items = fresh
	} else {
		merged := make([]T, 0, len(p.items)+len(page.Items))
		merged = append(merged, p.items...)
		merged = append(merged, page.Items...)
		p.items = merged
	}
	p.next = page.Next
	p.loaded = true
	return page.Items, nil
}

// Items returns the current loaded sequence. The returned slice is an
// immutable snapshot; it is never mutated by later loads or edits.
func (p *Paginator[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.items
}

// HasMore reports whether another page may exist. True before the first
// load, then derived from the presence of a continuation cursor.
func (p *Paginator[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.loaded || p.next != nil
}

// Loading reports whether a load is currently in flight.
func (p *Paginator[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadingMore
}

// Lookup finds a loaded item by id.
func (p *Paginator[T]) Lookup(id string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.items {
		if it.ItemID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Replace swaps the item with the given id for v, keeping its position.
// Only the Mutator edits items; everything else treats the sequence as
// read-only. Reports whether the id was found.
func (p *Paginator[T]) Replace(id string, v T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, it := range p.items {
		if it.ItemID() == id {
			swapped := make([]T, len(p.items))
			copy(swapped, p.items)
			swapped[i] = v
			p.items = swapped
			return true
		}
	}
	return false
}

// Remove drops the item with the given id. Used only on an explicit removal
// signal from the server (the entity is gone). Reports whether it was found.
func (p *Paginator[T]) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, it := range p.items {
		if it.ItemID() == id {
			trimmed := make([]T, 0, len(p.items)-1)
			trimmed = append(trimmed, p.items[:i]...)
			trimmed = append(trimmed, p.items[i+1:]...)
			p.items = trimmed
			return true
		}
	}
	return false
}
