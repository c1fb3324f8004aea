package viewcache

import (
	"context"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/viewcache/codec"
	pr "github.com/unkn0wn-root/viewcache/provider"
	"github.com/unkn0wn-root/viewcache/internal/wire"
)

// SnapshotOptions tune a Snapshot. Namespace, Provider and Codec are
// required; others have sensible defaults.
type SnapshotOptions[V any] struct {
	// Required
	Namespace string // logical namespace to avoid collisions, e.g. "tools", "workspaces"
	Provider  pr.Provider
	Codec     c.Codec[V]

	TTL    time.Duration // 0 => entries never expire (store may still evict)
	Logger Logger
	Hooks  Hooks
	Clock  func() time.Time // nil => time.Now
}

// Snapshot is the best-effort durable echo of successful fetches. It exists
// so a returning session can paint a last-known state instantly, before the
// first real fetch resolves. It is never authoritative: reads carry the
// write timestamp so callers can label the data as possibly stale, and
// nothing here is ever treated as proof of freshness.
//
// Storage keys are "snap:<ns>:<key>"; payloads are framed by internal/wire
// and anything that fails validation is deleted on read.
type Snapshot[V any] struct {
	ns       string
	provider pr.Provider
	codec    c.Codec[V]
	ttl      time.Duration
	log      Logger
	hooks    Hooks
	now      func() time.Time
}

var _ SnapshotWriter[struct{}] = (*Snapshot[struct{}])(nil)

func NewSnapshot[V any](opts SnapshotOptions[V]) (*Snapshot[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("viewcache: snapshot provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("viewcache: snapshot codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("viewcache: snapshot namespace is required")
	}

	s := &Snapshot[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		ttl:      opts.TTL,
	}
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.Clock != nil {
		s.now = opts.Clock
	} else {
		s.now = time.Now
	}
	return s, nil
}

// Write persists value under key. Callers treat failures as non-fatal; the
// Cache logs and moves on.
func (s *Snapshot[V]) Write(ctx context.Context, key string, value V) error {
	payload, err := s.codec.Encode(value)
	if err != nil {
		return err
	}
	framed := wire.EncodeSnapshot(s.now().UnixNano(), payload)
	ok, err := s.provider.Set(ctx, s.storageKey(key), framed, s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Debug("snapshot write rejected by provider (pressure)", Fields{"key": key})
	}
	return nil
}

// ReadLastKnown returns the last persisted value and when it was written.
// ok is false when nothing usable is stored. Corrupt or undecodable entries
// are deleted and reported absent rather than surfaced as errors.
func (s *Snapshot[V]) ReadLastKnown(ctx context.Context, key string) (v V, writtenAt time.Time, ok bool, err error) {
	var zero V
	k := s.storageKey(key)
	raw, found, err := s.provider.Get(ctx, k)
	if err != nil || !found {
		return zero, time.Time{}, false, err
	}
	at, payload, err := wire.DecodeSnapshot(raw)
	if err != nil {
		_ = s.provider.Del(ctx, k) // self-heal corrupt
		s.hooks.SnapshotSelfHeal(k, "corrupt")
		return zero, time.Time{}, false, nil
	}
	v, err = s.codec.Decode(payload)
	if err != nil {
		_ = s.provider.Del(ctx, k) // self-heal
		s.hooks.SnapshotSelfHeal(k, "value_decode")
		return zero, time.Time{}, false, nil
	}
	return v, time.Unix(0, at), true, nil
}

// Forget removes the persisted entry, e.g. on sign-out.
func (s *Snapshot[V]) Forget(ctx context.Context, key string) error {
	return s.provider.Del(ctx, s.storageKey(key))
}

// Close releases the underlying provider.
func (s *Snapshot[V]) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}

func (s *Snapshot[V]) storageKey(key string) string {
	// isolate by namespace
	return "snap:" + s.ns + ":" + key
}
