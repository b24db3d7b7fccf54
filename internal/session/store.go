// Package session provides durable, TTL-sliding persistence for conversation
// state, with an in-memory fallback when the durable backend is unreachable.
package session

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTTL is the sliding expiry window for a conversation.
const DefaultTTL = 5400 * time.Second

// Envelope is the persisted unit: a serializable snapshot of conversation
// state plus its last-touch timestamp. The payload stays opaque to this
// package so the store does not depend on flow types.
type Envelope struct {
	State     json.RawMessage `json:"state"`
	TouchedAt time.Time       `json:"touchedAt"`
}

// Store is the session context store contract. TTL behavior is part of the
// contract: every Get on a hit refreshes the TTL to the full window (sliding
// expiry), and every Set writes with the full window.
type Store interface {
	// Get returns the envelope for a conversation id, or nil on a miss.
	Get(ctx context.Context, id string) (*Envelope, error)
	// Set persists the envelope with a refreshed TTL.
	Set(ctx context.Context, id string, envelope Envelope) error
	// Delete removes the conversation state (explicit session reset).
	Delete(ctx context.Context, id string) error
}
