package viewcache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ViewOptions tune a View. WorkspaceID and Source are required; Applier and
// Fields enable mutations and must be set together.
type ViewOptions[T Item] struct {
	WorkspaceID string
	PageSize    int // 0 => 50
	Source      Source[T]

	// Mutation wiring; leave both unset for a read-only view.
	Applier Applier
	Fields  map[string]Field[T]

	// SearchText yields the item's searchable text; nil disables the text
	// filter. IsActive drives the status filter; nil disables it.
	SearchText func(T) string
	IsActive   func(T) bool

	// SearchDebounce defers applying SetQuery so large loaded sets are not
	// refiltered on every keystroke. 0 => apply immediately.
	SearchDebounce time.Duration

	Notifier Notifier
	Logger   Logger
	Hooks    Hooks

	// Seq counter pruning, forwarded to the Mutator.
	SeqCleanupInterval time.Duration
	SeqRetention       time.Duration
}

// View drives one rendered list: it loads pages through a Paginator, routes
// toggles through a Mutator, and applies status plus free-text filtering
// over already-loaded items only. Filtering never touches the network;
// LoadMore is the only way to grow the visible universe.
//
// Close tears the view down. Results (page loads, mutation responses) that
// settle afterwards are discarded, never applied.
type View[T Item] struct {
	pg  *Paginator[T]
	mut *Mutator[T] // nil for read-only views

	searchText func(T) string
	isActive   func(T) bool
	debounce   time.Duration
	log        Logger

	mu        sync.Mutex
	status    StatusFilter
	query     string // the applied (debounce-settled) query
	qTimer    *time.Timer
	done      chan struct{}
	closeOnce sync.Once
}

func NewView[T Item](opts ViewOptions[T]) (*View[T], error) {
	if opts.WorkspaceID == "" {
		return nil, fmt.Errorf("viewcache: view workspace id is required")
	}
	if (opts.Applier == nil) != (len(opts.Fields) == 0) {
		return nil, fmt.Errorf("viewcache: applier and fields must be set together")
	}

	v := &View[T]{
		searchText: opts.SearchText,
		isActive:   opts.IsActive,
		debounce:   opts.SearchDebounce,
		done:       make(chan struct{}),
	}
	v.log = coalesce[Logger](opts.Logger, NopLogger{})

	alive := func() bool {
		select {
		case <-v.done:
			return false
		default:
			return true
		}
	}

	pg, err := NewPaginator[T](PaginatorOptions[T]{
		Source:      opts.Source,
		WorkspaceID: opts.WorkspaceID,
		PageSize:    opts.PageSize,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
		Alive:       alive,
	})
	if err != nil {
		return nil, err
	}
	v.pg = pg

	if opts.Applier != nil {
		mut, err := NewMutator[T](MutatorOptions[T]{
			Applier:         opts.Applier,
			List:            pg,
			Fields:          opts.Fields,
			Notifier:        opts.Notifier,
			Logger:          opts.Logger,
			Hooks:           opts.Hooks,
			Alive:           alive,
			CleanupInterval: opts.SeqCleanupInterval,
			SeqRetention:    opts.SeqRetention,
		})
		if err != nil {
			return nil, err
		}
		v.mut = mut
	}
	return v, nil
}

// Close marks the view torn down and stops its background resources.
// Safe to call multiple times.
func (v *View[T]) Close() {
	v.closeOnce.Do(func() {
		close(v.done)
		v.mu.Lock()
		if v.qTimer != nil {
			v.qTimer.Stop()
			v.qTimer = nil
		}
		v.mu.Unlock()
		if v.mut != nil {
			v.mut.Close()
		}
	})
}

// LoadFirst loads the first page, starting a fresh sequence.
func (v *View[T]) LoadFirst(ctx context.Context) error {
	_, err := v.pg.LoadFirst(ctx)
	return err
}

// LoadMore appends the next page. No-op while a load is in flight or when
// there are no more pages.
func (v *View[T]) LoadMore(ctx context.Context) error {
	_, err := v.pg.LoadMore(ctx)
	return err
}

// Mutate routes one field change through the optimistic mutator. The local
// list reflects the change before the network round trip; run it on its own
// goroutine from UI code.
func (v *View[T]) Mutate(ctx context.Context, id, field string, desired any) error {
	if v.mut == nil {
		return fmt.Errorf("viewcache: view is read-only")
	}
	return v.mut.Mutate(ctx, id, field, desired)
}

// PendingFor reports whether (id, field) has a mutation awaiting its
// response; the originating control should be disabled while true.
func (v *View[T]) PendingFor(id, field string) bool {
	return v.mut != nil && v.mut.PendingFor(id, field)
}

// Items returns the full loaded sequence, unfiltered.
func (v *View[T]) Items() []T { return v.pg.Items() }

// Visible applies the status and text filters to the loaded sequence.
// Purely local: no network call, no page refetch.
func (v *View[T]) Visible() []T {
	v.mu.Lock()
	status := v.status
	query := toLowerTrimmed(v.query)
	v.mu.Unlock()

	items := v.pg.Items()
	if status == FilterAll && query == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !matchStatus(status, v.isActive, it) {
			continue
		}
		if !matchQuery(query, v.searchText, it) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// SetStatusFilter switches the status filter immediately.
func (v *View[T]) SetStatusFilter(f StatusFilter) {
	v.mu.Lock()
	v.status = f
	v.mu.Unlock()
}

// SetQuery records the search input. With a debounce configured the query
// applies after the input settles; rapid keystrokes keep pushing the timer
// back so Visible is not recomputed per keystroke over large loaded sets.
func (v *View[T]) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.qTimer != nil {
		v.qTimer.Stop()
		v.qTimer = nil
	}
	if v.debounce <= 0 {
		v.query = q
		return
	}
	v.qTimer = time.AfterFunc(v.debounce, func() {
		select {
		case <-v.done:
			return
		default:
		}
		v.mu.Lock()
		v.query = q
		v.qTimer = nil
		v.mu.Unlock()
	})
}

// Query returns the currently applied search query.
func (v *View[T]) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// HasMore drives the "load more" affordance.
func (v *View[T]) HasMore() bool { return v.pg.HasMore() }

// Loading reports whether a page load is in flight.
func (v *View[T]) Loading() bool { return v.pg.Loading() }
