package domain

import (
	"context"
	"time"
)

// RateLimitDecision reports the state of the caller's current window after
// counting one request.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts requests per key in fixed windows. A limit of zero or
// less disables counting and always allows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
	// Reset forgets the key's current window.
	Reset(ctx context.Context, key string) error
}
