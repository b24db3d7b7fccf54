package session

import (
	"context"
	"sync"
	"time"

	"propertypilot_backend/platform/logger"
)

// Store modes reported by Mode().
const (
	ModeRedis  = "redis"
	ModeMemory = "memory"
)

// probeInterval is how long the failover store waits before re-checking a
// backend it marked unreachable.
const probeInterval = 30 * time.Second

// FailoverStore serves from redis while it is reachable and fails open to a
// process-local in-memory store when it is not. The degradation is an
// explicit availability/consistency trade-off: in memory mode state does not
// survive restarts and is not shared across instances, so the active mode is
// exposed for operators.
type FailoverStore struct {
	primary  *RedisStore
	fallback *MemoryStore
	log      *logger.Logger

	mu        sync.Mutex
	degraded  bool
	lastProbe time.Time
}

// NewFailoverStore wraps a redis store with an in-memory fallback.
func NewFailoverStore(primary *RedisStore, fallback *MemoryStore, log *logger.Logger) *FailoverStore {
	return &FailoverStore{primary: primary, fallback: fallback, log: log}
}

var _ Store = (*FailoverStore)(nil)

// Mode reports which backend is currently serving.
func (s *FailoverStore) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return ModeMemory
	}
	return ModeRedis
}

// usePrimary decides per call whether redis should be attempted, re-probing
// a degraded backend after a cooldown.
func (s *FailoverStore) usePrimary(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.degraded {
		return true
	}
	if time.Since(s.lastProbe) < probeInterval {
		return false
	}

	s.lastProbe = time.Now()
	if err := s.primary.Ping(ctx); err != nil {
		return false
	}

	s.degraded = false
	s.log.StoreDegraded(ModeRedis, nil)
	return true
}

func (s *FailoverStore) markDegraded(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.degraded {
		s.degraded = true
		s.lastProbe = time.Now()
		s.log.StoreDegraded(ModeMemory, err)
	}
}

// Get reads from redis while healthy, falling open to memory on failure.
func (s *FailoverStore) Get(ctx context.Context, id string) (*Envelope, error) {
	if s.usePrimary(ctx) {
		envelope, err := s.primary.Get(ctx, id)
		if err == nil {
			return envelope, nil
		}
		s.markDegraded(err)
	}
	return s.fallback.Get(ctx, id)
}

// Set writes to redis while healthy, falling open to memory on failure.
func (s *FailoverStore) Set(ctx context.Context, id string, envelope Envelope) error {
	if s.usePrimary(ctx) {
		err := s.primary.Set(ctx, id, envelope)
		if err == nil {
			return nil
		}
		s.markDegraded(err)
	}
	return s.fallback.Set(ctx, id, envelope)
}

// Delete removes the session from the active backend; the fallback is always
// cleared so a later mode flip cannot resurrect reset state.
func (s *FailoverStore) Delete(ctx context.Context, id string) error {
	if s.usePrimary(ctx) {
		if err := s.primary.Delete(ctx, id); err != nil {
			s.markDegraded(err)
		}
	}
	return s.fallback.Delete(ctx, id)
}
