package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"propertypilot_backend/platform/logger"
)

func envelope(t *testing.T, payload string) Envelope {
	t.Helper()
	return Envelope{State: json.RawMessage(payload), TouchedAt: time.Now().UTC()}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreFromClient(client, ttl), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, _ := newRedisStore(t, 10*time.Second)
	ctx := context.Background()

	if got, err := store.Get(ctx, "missing"); err != nil || got != nil {
		t.Fatalf("expected miss, got %v err %v", got, err)
	}

	if err := store.Set(ctx, "abc", envelope(t, `{"node":"results"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || string(got.State) != `{"node":"results"}` {
		t.Fatalf("unexpected envelope: %+v", got)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := store.Get(ctx, "abc"); err != nil || got != nil {
		t.Fatalf("expected miss after delete, got %v err %v", got, err)
	}
}

func TestRedisStore_SlidingTTLOnRead(t *testing.T) {
	ttl := 10 * time.Second
	store, mr := newRedisStore(t, ttl)
	ctx := context.Background()

	if err := store.Set(ctx, "abc", envelope(t, `{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Two reads separated by more than half the TTL but less than the TTL:
	// without the read-side refresh the second read would miss.
	mr.FastForward(6 * time.Second)
	if got, err := store.Get(ctx, "abc"); err != nil || got == nil {
		t.Fatalf("expected hit before expiry, got %v err %v", got, err)
	}

	mr.FastForward(6 * time.Second)
	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected the first read to have reset the expiry window")
	}

	// And the key still expires once untouched.
	mr.FastForward(11 * time.Second)
	if got, _ := store.Get(ctx, "abc"); got != nil {
		t.Fatal("expected expiry after a full untouched window")
	}
}

func TestMemoryStore_SlidingTTL(t *testing.T) {
	store := NewMemoryStore(10 * time.Second)
	current := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	if err := store.Set(ctx, "abc", envelope(t, `{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	current = current.Add(6 * time.Second)
	if got, _ := store.Get(ctx, "abc"); got == nil {
		t.Fatal("expected hit at 6s")
	}

	current = current.Add(6 * time.Second)
	if got, _ := store.Get(ctx, "abc"); got == nil {
		t.Fatal("expected the read at 6s to slide the expiry")
	}

	current = current.Add(11 * time.Second)
	if got, _ := store.Get(ctx, "abc"); got != nil {
		t.Fatal("expected expiry after a full untouched window")
	}
}

func TestFailoverStore_FailsOpenToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	primary := NewRedisStoreFromClient(client, 10*time.Second)
	fallback := NewMemoryStore(10 * time.Second)
	store := NewFailoverStore(primary, fallback, logger.New("development"))
	ctx := context.Background()

	if err := store.Set(ctx, "abc", envelope(t, `{"node":"results"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Mode() != ModeRedis {
		t.Fatalf("expected redis mode, got %s", store.Mode())
	}

	mr.Close()

	if err := store.Set(ctx, "abc", envelope(t, `{"node":"gathering"}`)); err != nil {
		t.Fatalf("expected fallback write to succeed: %v", err)
	}
	if store.Mode() != ModeMemory {
		t.Fatalf("expected memory mode after backend loss, got %s", store.Mode())
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || string(got.State) != `{"node":"gathering"}` {
		t.Fatalf("expected fallback state, got %+v", got)
	}
}
