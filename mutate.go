package viewcache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle of one mutation intent.
type Status int

const (
	StatusPending Status = iota
	StatusCommitted
	StatusRolledBack
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCommitted:
		return "committed"
	case StatusRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Intent records one user-issued field mutation: what is being changed, the
// value to restore on rejection, and the sequence number that decides
// whether its eventual server response is still relevant.
type Intent struct {
	TargetID string
	Field    string
	Desired  any
	Previous any
	Seq      uint64
	Status   Status
}

// ListEditor is what the Mutator needs from the sequence owner. Paginator
// implements it; tests substitute fakes.
type ListEditor[T Item] interface {
	Lookup(id string) (T, bool)
	Replace(id string, v T) bool
	Remove(id string) bool
}

// MutatorOptions tune a Mutator. Applier, List and Fields are required.
type MutatorOptions[T Item] struct {
	Applier Applier
	List    ListEditor[T]
	Fields  map[string]Field[T]

	Notifier Notifier
	Logger   Logger
	Hooks    Hooks
	Alive    func() bool // nil => always alive

	// Seq counter pruning for long-lived sessions. 0/0 disables the sweep.
	CleanupInterval time.Duration
	SeqRetention    time.Duration
}

// Mutator applies field mutations local-first and reconciles with the
// server afterwards.
//
// Per (item, field) there is at most one live intent. A new mutation issued
// while an earlier one is in flight replaces it (last-write-wins): its
// previous value is taken from the current, already-optimistic local state,
// and the earlier request's eventual response is discarded via a sequence
// number comparison at settle time. The abandoned call is not cancelled;
// its result is simply irrelevant.
//
// Failures are local and non-fatal: a rolled-back mutation never removes
// the item (a 404 does - that is the server saying the entity is gone),
// never blocks other mutations, and is retryable by re-issuing the action.
type Mutator[T Item] struct {
	applier Applier
	list    ListEditor[T]
	fields  map[string]Field[T]
	seqs    *seqStore
	pending map[string]Intent

	notify Notifier
	log    Logger
	hooks  Hooks
	alive  func() bool

	mu sync.Mutex
}

func NewMutator[T Item](opts MutatorOptions[T]) (*Mutator[T], error) {
	if opts.Applier == nil {
		return nil, fmt.Errorf("viewcache: mutator applier is required")
	}
	if opts.List == nil {
		return nil, fmt.Errorf("viewcache: mutator list is required")
	}
	if len(opts.Fields) == 0 {
		return nil, fmt.Errorf("viewcache: mutator fields are required")
	}

	m := &Mutator[T]{
		applier: opts.Applier,
		list:    opts.List,
		fields:  opts.Fields,
		seqs:    newSeqStore(opts.CleanupInterval, opts.SeqRetention),
		pending: make(map[string]Intent),
	}
	m.notify = coalesce[Notifier](opts.Notifier, NopNotifier{})
	m.log = coalesce[Logger](opts.Logger, NopLogger{})
	m.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.Alive != nil {
		m.alive = opts.Alive
	} else {
		m.alive = func() bool { return true }
	}
	return m, nil
}

// Close stops the seq sweep loop. In-flight mutations settle normally.
func (m *Mutator[T]) Close() { m.seqs.close() }

// Mutate sets field on the item with the given id to desired. The local
// value changes before this call blocks on the network, so readers of the
// list see the change with zero latency; run Mutate on its own goroutine
// from UI code. Exactly one notification (success or error) is emitted per
// settled mutation; superseded and post-close responses emit none.
func (m *Mutator[T]) Mutate(ctx context.Context, id, field string, desired any) error {
	fa, ok := m.fields[field]
	if !ok {
		return fmt.Errorf("viewcache: no field accessor for %q", field)
	}

	m.mu.Lock()
	it, ok := m.list.Lookup(id)
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("viewcache: item %q is not loaded", id)
	}
	key := seqKey(id, field)
	seq := m.seqs.bump(key)
	prev := fa.Get(it)
	m.list.Replace(id, fa.Set(it, desired)) // optimistic apply
	m.pending[key] = Intent{
		TargetID: id,
		Field:    field,
		Desired:  desired,
		Previous: prev,
		Seq:      seq,
		Status:   StatusPending,
	}
	m.mu.Unlock()

	err := m.applier.Apply(ctx, id, field, desired)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seqs.current(key) != seq {
		// a newer mutation on this (id, field) owns the state now
		m.hooks.MutationSuperseded(id, field, seq)
		return nil
	}
	if !m.alive() {
		m.hooks.ResultAfterClose("mutate")
		return nil
	}

	intent := m.pending[key]
	delete(m.pending, key)

	if err == nil {
		// committed: the optimistic value was right, leave it as-is
		m.notify.Success("changes saved")
		return nil
	}

	if IsNotFound(err) {
		m.list.Remove(id)
		m.hooks.MutationTargetGone(id)
		m.notify.Error(userMessage(err))
		return err
	}

	// rejected or transient: restore the previous value
	if cur, ok := m.list.Lookup(id); ok {
		m.list.Replace(id, fa.Set(cur, intent.Previous))
	}
	m.hooks.MutationRolledBack(id, field, err)
	m.log.Warn("mutation rolled back", Fields{"id": id, "field": field, "err": err})
	m.notify.Error(userMessage(err))
	return err
}

// PendingFor reports whether a mutation on (id, field) is awaiting its
// server response. UIs disable the originating control while true.
func (m *Mutator[T]) PendingFor(id, field string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[seqKey(id, field)]
	return ok
}

// IntentFor returns a copy of the live intent for (id, field), if any.
func (m *Mutator[T]) IntentFor(id, field string) (Intent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.pending[seqKey(id, field)]
	return in, ok
}

func seqKey(id, field string) string { return id + "\x00" + field }
