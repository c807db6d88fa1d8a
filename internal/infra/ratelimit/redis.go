package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventbooking/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "bookingd:ratelimit:"

// RedisLimiter shares fixed-window counters between replicas. The counter and
// its expiry are set in one script so a crash between INCR and PEXPIRE cannot
// leave a key without a TTL.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	now    func() time.Time
}

var incrementWindow = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {hits, ttl}
`)

var forgetWindow = redis.NewScript(`return redis.call("DEL", KEYS[1])`)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Now      func() time.Time
}

// NewRedisLimiter dials lazily; the first Allow call surfaces connection
// errors.
func NewRedisLimiter(cfg RedisConfig) (*RedisLimiter, *redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisLimiterWithClient(client, cfg.Prefix, cfg.Now), client, nil
}

func NewRedisLimiterWithClient(client redis.Scripter, prefix string, now func() time.Time) *RedisLimiter {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{client: client, prefix: prefix, now: now}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, period time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	millis := period.Milliseconds()
	if millis <= 0 {
		millis = 1000
	}
	raw, err := incrementWindow.Run(ctx, r.client, []string{r.prefix + key}, millis).Result()
	if err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("redis rate limit: %w", err)
	}
	values, ok := raw.([]any)
	if !ok || len(values) < 2 {
		return domain.RateLimitDecision{}, errors.New("unexpected redis rate limit response")
	}
	hits, ok := values[0].(int64)
	if !ok {
		return domain.RateLimitDecision{}, errors.New("invalid redis counter response")
	}
	ttl, _ := values[1].(int64)
	return decide(hits, ttl, limit, r.now()), nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := forgetWindow.Run(ctx, r.client, []string{r.prefix + key}).Err(); err != nil {
		return fmt.Errorf("redis rate limit reset: %w", err)
	}
	return nil
}

func decide(hits, ttlMillis int64, limit int, now time.Time) domain.RateLimitDecision {
	resetAt := now
	if ttlMillis > 0 {
		resetAt = now.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := limit - int(hits)
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitDecision{
		Allowed:   hits <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

var _ domain.RateLimiter = (*RedisLimiter)(nil)
