package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func TestMemoryLimiterWindow(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: clock.Now})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, "login:10.0.0.1", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !decision.Allowed || decision.Remaining != 2-i {
			t.Fatalf("attempt %d: unexpected decision %+v", i, decision)
		}
	}
	decision, err := limiter.Allow(ctx, "login:10.0.0.1", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if decision.Allowed || decision.Remaining != 0 {
		t.Fatalf("expected denial, got %+v", decision)
	}
	if !decision.ResetAt.Equal(clock.now.Add(time.Minute)) {
		t.Fatalf("unexpected reset %s", decision.ResetAt)
	}

	other, _ := limiter.Allow(ctx, "login:10.0.0.2", 3, time.Minute)
	if !other.Allowed {
		t.Fatalf("keys must not share a window")
	}

	clock.now = clock.now.Add(time.Minute)
	decision, _ = limiter.Allow(ctx, "login:10.0.0.1", 3, time.Minute)
	if !decision.Allowed || decision.Remaining != 2 {
		t.Fatalf("expected a fresh window, got %+v", decision)
	}
}

func TestMemoryLimiterDisabledLimit(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	for i := 0; i < 100; i++ {
		decision, err := limiter.Allow(context.Background(), "k", 0, time.Second)
		if err != nil || !decision.Allowed {
			t.Fatalf("limit 0 should always allow: %+v %v", decision, err)
		}
	}
	if limiter.Len() != 0 {
		t.Fatalf("disabled limit should not track keys")
	}
}

func TestMemoryLimiterCapacity(t *testing.T) {
	clock := &stepClock{now: time.Unix(1700000000, 0)}
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: clock.Now, MaxKeys: 2})
	ctx := context.Background()

	limiter.Allow(ctx, "a", 1, time.Second)
	limiter.Allow(ctx, "b", 1, time.Second)
	if _, err := limiter.Allow(ctx, "c", 1, time.Second); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}

	clock.now = clock.now.Add(2 * time.Second)
	if _, err := limiter.Allow(ctx, "c", 1, time.Second); err != nil {
		t.Fatalf("expired windows should be swept: %v", err)
	}
	if limiter.Len() != 1 {
		t.Fatalf("expected 1 tracked key, got %d", limiter.Len())
	}
}

func TestMemoryLimiterRejectsBlankKey(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	if _, err := limiter.Allow(context.Background(), " ", 1, time.Second); err == nil {
		t.Fatalf("expected error for blank key")
	}
}

func TestMemoryLimiterReset(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	ctx := context.Background()

	limiter.Allow(ctx, "login:account:alice", 1, time.Minute)
	if decision, _ := limiter.Allow(ctx, "login:account:alice", 1, time.Minute); decision.Allowed {
		t.Fatalf("expected second attempt to be denied")
	}
	if err := limiter.Reset(ctx, "login:account:alice"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if decision, _ := limiter.Allow(ctx, "login:account:alice", 1, time.Minute); !decision.Allowed {
		t.Fatalf("expected a fresh window after reset, got %+v", decision)
	}
	if err := limiter.Reset(ctx, "never-seen"); err != nil {
		t.Fatalf("resetting an unknown key: %v", err)
	}
}

func TestForLogin(t *testing.T) {
	keys := ForLogin("203.0.113.7", "  Alice ")
	if keys.Client != "login:client:203.0.113.7" {
		t.Fatalf("unexpected client key %q", keys.Client)
	}
	if keys.Account != "login:account:alice" {
		t.Fatalf("unexpected account key %q", keys.Account)
	}
	if ForLogin("203.0.113.7", "ALICE").Account != keys.Account {
		t.Fatalf("case variants must share an account key")
	}
	if got := ForLogin("203.0.113.7", " ").Account; got != "" {
		t.Fatalf("expected no account key for a blank username, got %q", got)
	}
}
