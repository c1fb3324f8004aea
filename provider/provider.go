// Package provider defines the byte-storage abstraction behind viewcache's
// persistent snapshots.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no prepended
// or appended metadata, no re-encoding). If a store performs internal
// transforms (e.g. compression), they MUST be fully reversed.
//
// The keyspace "snap:<ns>:" is owned by viewcache. External code MUST NOT
// write values under this prefix; foreign writes fail wire-format validation
// on read and are deleted as corrupt.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent
// use. A zero or negative TTL means "no expiry" where the store supports it.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
