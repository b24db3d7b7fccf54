package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	envelope  Envelope
	expiresAt time.Time
}

// MemoryStore is the process-local fallback store. State kept here does not
// survive restarts and is invisible to other instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store with the given sliding TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// Get returns the envelope on a live hit, sliding its expiry to the full
// window. Expired entries are dropped lazily.
func (s *MemoryStore) Get(_ context.Context, id string) (*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return nil, nil
	}

	entry.expiresAt = s.now().Add(s.ttl)
	s.entries[id] = entry

	envelope := entry.envelope
	return &envelope, nil
}

// Set stores the envelope with the full TTL window.
func (s *MemoryStore) Set(_ context.Context, id string, envelope Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = memoryEntry{
		envelope:  envelope,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Delete removes the conversation state.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}
