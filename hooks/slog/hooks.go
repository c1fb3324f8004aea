// Package sloghook logs viewcache hook events through log/slog, with
// optional sampling for the chatty ones.
package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/viewcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SupersededEvery uint64
	SuppressedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix (cache keys can
	// embed workspace ids).
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	supersededCtr atomic.Uint64
	suppressedCtr atomic.Uint64
}

var _ viewcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StaleServed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("viewcache.stale_served", "key", h.redact(key), "err", err)
}

func (h *Hooks) SnapshotWriteFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("viewcache.snapshot_write_failed", "key", h.redact(key), "err", err)
}

func (h *Hooks) SnapshotSelfHeal(storageKey, reason string) {
	if h.l == nil {
		return
	}
	h.l.Debug("viewcache.snapshot_self_heal", "key", h.redact(storageKey), "reason", reason)
}

func (h *Hooks) LoadMoreSuppressed(workspaceID string) {
	if h.l == nil || !sample(h.opts.SuppressedEvery, &h.suppressedCtr) {
		return
	}
	h.l.Debug("viewcache.load_more_suppressed", "workspace", workspaceID)
}

func (h *Hooks) MutationSuperseded(id, field string, seq uint64) {
	if h.l == nil || !sample(h.opts.SupersededEvery, &h.supersededCtr) {
		return
	}
	h.l.Debug("viewcache.mutation_superseded", "id", id, "field", field, "seq", seq)
}

func (h *Hooks) ResultAfterClose(op string) {
	if h.l == nil {
		return
	}
	h.l.Debug("viewcache.result_after_close", "op", op)
}

func (h *Hooks) MutationRolledBack(id, field string, err error) {
	if h.l == nil {
		return
	}
	h.l.Info("viewcache.mutation_rolled_back", "id", id, "field", field, "err", err)
}

func (h *Hooks) MutationTargetGone(id string) {
	if h.l == nil {
		return
	}
	h.l.Info("viewcache.mutation_target_gone", "id", id)
}
