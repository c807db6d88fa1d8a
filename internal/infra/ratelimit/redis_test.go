package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestDecideFromCounter(t *testing.T) {
	now := time.Unix(1700000000, 0)
	decision := decide(2, 1500, 3, now)
	if !decision.Allowed || decision.Remaining != 1 {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if !decision.ResetAt.Equal(now.Add(1500 * time.Millisecond)) {
		t.Fatalf("unexpected reset %s", decision.ResetAt)
	}

	decision = decide(5, -1, 3, now)
	if decision.Allowed || decision.Remaining != 0 || !decision.ResetAt.Equal(now) {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestNewRedisLimiterRequiresAddr(t *testing.T) {
	if _, _, err := NewRedisLimiter(RedisConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}

func TestRedisLimiterUnreachable(t *testing.T) {
	limiter, client, err := NewRedisLimiter(RedisConfig{Addr: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := limiter.Allow(ctx, "login:test", 1, time.Second); err == nil {
		t.Fatalf("expected connection error")
	}
	if err := limiter.Reset(ctx, "login:test"); err == nil {
		t.Fatalf("expected connection error on reset")
	}
	decision, err := limiter.Allow(ctx, "login:test", 0, time.Second)
	if err != nil || !decision.Allowed {
		t.Fatalf("limit 0 should not reach redis: %+v %v", decision, err)
	}
}
