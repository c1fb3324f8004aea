package viewcache

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the data layer calls them
// on hot paths. Wrap with hooks/async for fan-out to slow sinks.
type Hooks interface {
	// A fetch failed but a previously cached value was served instead.
	StaleServed(key string, err error)

	// A write-through to the persistent snapshot failed (best-effort only).
	SnapshotWriteFailed(key string, err error)

	// A snapshot entry was deleted on read.
	// reason is one of "corrupt", "value_decode".
	SnapshotSelfHeal(storageKey, reason string)

	// LoadMore was called while a previous load was still in flight and
	// became a no-op.
	LoadMoreSuppressed(workspaceID string)

	// A mutation response arrived after a newer mutation on the same
	// (id, field) already settled. seq is the superseded sequence number.
	MutationSuperseded(id, field string, seq uint64)

	// A response arrived after the owning view was closed and was dropped.
	// op is one of "load", "mutate".
	ResultAfterClose(op string)

	// A mutation was rejected and the local value restored.
	MutationRolledBack(id, field string, err error)

	// A mutation target returned 404 and was removed from the local list.
	MutationTargetGone(id string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StaleServed(string, error)                 {}
func (NopHooks) SnapshotWriteFailed(string, error)         {}
func (NopHooks) SnapshotSelfHeal(string, string)           {}
func (NopHooks) LoadMoreSuppressed(string)                 {}
func (NopHooks) MutationSuperseded(string, string, uint64) {}
func (NopHooks) ResultAfterClose(string)                   {}
func (NopHooks) MutationRolledBack(string, string, error)  {}
func (NopHooks) MutationTargetGone(string)                 {}
