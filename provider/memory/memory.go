// Package memory is an in-process Provider for single-session use and tests.
// Snapshots stored here do not survive a restart; use the redis provider
// when the "last known" state must outlive the process.
package memory

import (
	"context"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/viewcache/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no expiry
}

type Provider struct {
	mu sync.RWMutex
	m  map[string]entry
}

var _ pr.Provider = (*Provider)(nil)

func New() *Provider {
	return &Provider{m: make(map[string]entry)}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	e, ok := p.m[key]
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		p.mu.Lock()
		// recheck under the write lock; another writer may have replaced it
		if cur, ok := p.m[key]; ok && !cur.exp.IsZero() && time.Now().After(cur.exp) {
			delete(p.m, key)
		}
		p.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(e.v))
	copy(out, e.v)
	return out, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	p.mu.Lock()
	p.m[key] = entry{v: cp, exp: exp}
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *Provider) Close(_ context.Context) error { return nil }

// Len reports the number of live entries (expired ones may still count until
// their next read). Intended for tests.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m)
}
