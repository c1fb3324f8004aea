package viewcache

import (
	"sync"
	"time"
)

type seqEntry struct {
	Seq       uint64
	UpdatedAt time.Time
}

// seqStore keeps per-(item,field) mutation sequence numbers in-process.
// "Is this response still relevant?" becomes a comparison against the
// current counter instead of closure identity. Long-inactive entries are
// pruned by an optional cleanup loop so a long-lived dashboard session does
// not accumulate counters for items scrolled past months ago.
type seqStore struct {
	mu     sync.RWMutex
	seqs   map[string]seqEntry
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	retention time.Duration
}

func newSeqStore(cleanupInterval, retention time.Duration) *seqStore {
	s := &seqStore{
		seqs:      make(map[string]seqEntry),
		retention: retention,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

// current returns the latest sequence number; missing => 0.
func (s *seqStore) current(k string) uint64 {
	s.mu.RLock()
	e := s.seqs[k]
	s.mu.RUnlock()
	return e.Seq
}

// bump atomically increments and returns the new sequence number.
func (s *seqStore) bump(k string) uint64 {
	now := time.Now()
	s.mu.Lock()
	e := s.seqs[k]
	e.Seq++
	e.UpdatedAt = now
	s.seqs[k] = e
	s.mu.Unlock()
	return e.Seq
}

func (s *seqStore) cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.seqs {
		if !e.UpdatedAt.IsZero() && e.UpdatedAt.Before(cutoff) {
			delete(s.seqs, k)
		}
	}
	s.mu.Unlock()
}

func (s *seqStore) close() {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop() // stop ticker before waiting
			s.wg.Wait()
		}
	})
}
