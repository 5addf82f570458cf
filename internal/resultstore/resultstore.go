// Package resultstore keeps completed benchmark runs in memory, keyed by
// run id. Growth is bounded: the store holds at most a configured number
// of runs (oldest evicted first) and optionally expires runs after a TTL.
// Stored runs are immutable; Get hands back deep copies.
package resultstore

import (
	"sync"
	"time"

	"github.com/stellarlinkco/model-bench/internal/benchmark"
)

const DefaultMaxRuns = 256

type entry struct {
	run      *benchmark.Run
	storedAt time.Time
}

type Store struct {
	mu      sync.RWMutex
	maxRuns int
	ttl     time.Duration // zero means no expiry
	runs    map[string]entry
	order   []string // insertion order, oldest first

	now func() time.Time
}

// New creates a store holding at most maxRuns runs. A non-positive
// maxRuns uses DefaultMaxRuns; a non-positive ttl disables expiry.
func New(maxRuns int, ttl time.Duration) *Store {
	if maxRuns <= 0 {
		maxRuns = DefaultMaxRuns
	}
	return &Store{
		maxRuns: maxRuns,
		ttl:     ttl,
		runs:    make(map[string]entry),
		now:     time.Now,
	}
}

// Put stores a deep copy of a completed run, so later mutations through
// the caller's pointer never reach the store. Runs are append-only: a
// duplicate id replaces the previous run but keeps its insertion slot.
func (s *Store) Put(run *benchmark.Run) {
	if s == nil || run == nil || run.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = entry{run: run.Clone(), storedAt: s.now()}

	for len(s.order) > s.maxRuns {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
}

// Get returns a deep copy of the stored run, or false when the id is
// unknown or the run has expired.
func (s *Store) Get(id string) (*benchmark.Run, bool) {
	if s == nil || id == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		return nil, false
	}
	return e.run.Clone(), true
}

// Len reports the number of retained (unexpired) runs.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.runs {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

// IDs lists retained run ids, oldest first.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.runs[id]; ok && !s.expired(e) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl
}

// sweepLocked drops expired runs. Caller holds the write lock.
func (s *Store) sweepLocked() {
	if s.ttl <= 0 {
		return
	}

	kept := s.order[:0]
	for _, id := range s.order {
		e, ok := s.runs[id]
		if !ok {
			continue
		}
		if s.expired(e) {
			delete(s.runs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
