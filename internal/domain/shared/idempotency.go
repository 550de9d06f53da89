package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which events a handler has already processed
type IdempotencyStore interface {
	// MarkProcessed returns true if the event was newly marked, false if it was seen before
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Unmark forgets an event so that a failed handler run can be redelivered
	Unmark(ctx context.Context, eventID string) error
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}

// IdempotencyConfig holds configuration for idempotent event handling
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps processed event IDs for a week
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     7 * 24 * time.Hour,
		Enabled: true,
	}
}
