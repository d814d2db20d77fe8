package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers operation keys that have already been claimed,
// so that a retried request cannot run the same side effect twice.
type IdempotencyStore interface {
	// Claim records key with a TTL.
	// Returns true if the key was newly claimed, false if a live claim already exists.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Close releases resources held by the store
	Close() error
}
