// Package store holds the earnings projection served to readers. Each
// refresh cycle replaces the whole projection atomically, so readers never
// observe a half-written cycle.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// Store is a concurrency-safe snapshot of the latest published cycle.
type Store struct {
	mu          sync.RWMutex
	records     map[string]model.VaultEarnings
	publishedAt time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{records: make(map[string]model.VaultEarnings)}
}

// Replace swaps the served projection for the given cycle. The map is taken
// over by the store; callers must not mutate it afterwards.
func (s *Store) Replace(records map[string]model.VaultEarnings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records == nil {
		records = make(map[string]model.VaultEarnings)
	}
	s.records = records
	s.publishedAt = time.Now()
}

// All returns a copy of the current projection.
func (s *Store) All() map[string]model.VaultEarnings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.VaultEarnings, len(s.records))
	for addr, record := range s.records {
		out[addr] = record
	}
	return out
}

// Get returns the record for a vault address, matched case-insensitively.
func (s *Store) Get(address string) (model.VaultEarnings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[strings.ToLower(address)]
	return record, ok
}

// Len returns the number of vaults in the current projection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// PublishedAt returns when the current projection was published; the zero
// time means nothing has been published yet.
func (s *Store) PublishedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publishedAt
}
