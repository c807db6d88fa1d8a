package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"eventbooking/internal/domain"
)

var ErrCapacityExceeded = errors.New("rate limiter capacity exceeded")

// MemoryLimiter is a fixed-window counter kept in process memory. It suits a
// single replica; use the Redis limiter when several replicas share traffic.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
	maxKeys int
}

type window struct {
	hits int
	ends time.Time
}

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) *MemoryLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &MemoryLimiter{
		now:     cfg.Now,
		windows: make(map[string]*window),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, period time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if strings.TrimSpace(key) == "" {
		return domain.RateLimitDecision{}, errors.New("rate limit key is required")
	}
	if period <= 0 {
		period = time.Second
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if ok && !now.Before(w.ends) {
		delete(m.windows, key)
		ok = false
	}
	if !ok {
		if len(m.windows) >= m.maxKeys {
			m.sweep(now)
		}
		if len(m.windows) >= m.maxKeys {
			return domain.RateLimitDecision{}, ErrCapacityExceeded
		}
		w = &window{ends: now.Add(period)}
		m.windows[key] = w
	}

	if w.hits >= limit {
		return domain.RateLimitDecision{Limit: limit, ResetAt: w.ends}, nil
	}
	w.hits++
	return domain.RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - w.hits,
		ResetAt:   w.ends,
	}, nil
}

func (m *MemoryLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
	return nil
}

// Len reports how many windows are currently tracked.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

func (m *MemoryLimiter) sweep(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.ends) {
			delete(m.windows, key)
		}
	}
}

var _ domain.RateLimiter = (*MemoryLimiter)(nil)
