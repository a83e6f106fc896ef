package health

import (
	"sync"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

// Store is the keyed health-state map. It is passed explicitly to whichever
// component runs the sweep; there is no package-level instance.
//
// The map mutex only guards map access. Writers to the same key are already
// serialized by the job queue's dedup constraint, so no per-key locking is
// needed.
type Store struct {
	mu     sync.RWMutex
	states map[domain.CheckKey]domain.HealthState
}

// NewStore creates an empty health-state store.
func NewStore() *Store {
	return &Store{states: make(map[domain.CheckKey]domain.HealthState)}
}

// Get returns the state for a key, lazily defaulting a never-checked record.
func (s *Store) Get(key domain.CheckKey) domain.HealthState {
	s.mu.RLock()
	st, ok := s.states[key]
	s.mu.RUnlock()
	if !ok {
		return NewState()
	}
	return st
}

// Put stores the state for a key.
func (s *Store) Put(key domain.CheckKey, st domain.HealthState) {
	s.mu.Lock()
	s.states[key] = st
	s.mu.Unlock()
}

// Delete drops the state for a key. Used when garbage-collecting state for
// integrations that no longer exist.
func (s *Store) Delete(key domain.CheckKey) {
	s.mu.Lock()
	delete(s.states, key)
	s.mu.Unlock()
}

// Len returns the number of tracked integrations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
