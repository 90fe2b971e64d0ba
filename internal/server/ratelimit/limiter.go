// Package ratelimit throttles login attempts with a fixed window counter,
// kept in Redis when configured and in process memory otherwise.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether another attempt for key is allowed. When it is
// not, the returned duration says how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// Unlimited allows everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, time.Duration, error) { return true, 0, nil }

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter counts attempts per key in process memory.
type MemoryLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	if period <= 0 {
		period = time.Minute
	}
	return &MemoryLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictLocked(now)

	w, ok := l.windows[key]
	if !ok {
		w = &window{resetAt: now.Add(l.period)}
		l.windows[key] = w
	}
	w.count++
	if w.count <= l.limit {
		return true, 0, nil
	}
	return false, w.resetAt.Sub(now), nil
}

func (l *MemoryLimiter) evictLocked(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
