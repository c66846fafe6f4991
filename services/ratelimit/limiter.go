// Package ratelimit implements fixed-window request counters keyed by client identity.
// Windows align to floor(now/window), so every instance agrees on bucket boundaries.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Result is the outcome of one Allow call
type Result struct {
	OK                bool
	Remaining         int
	RetryAfterSeconds int
}

// Limiter counts requests per key within fixed windows
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// bucketIndex returns the window number and the instant the window closes
func bucketIndex(now time.Time, window time.Duration) (int64, time.Time) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	idx := now.UnixMilli() / ms
	return idx, time.UnixMilli((idx + 1) * ms)
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func decide(count int64, limit int, now, resetAt time.Time) Result {
	if count > int64(limit) {
		return Result{OK: false, RetryAfterSeconds: retryAfter(now, resetAt)}
	}
	return Result{OK: true, Remaining: limit - int(count)}
}

type memoryEntry struct {
	bucket    int64
	count     int64
	expiresAt time.Time
}

// MemoryLimiter is the in-process fallback. Counts are per instance only.
type MemoryLimiter struct {
	mu    sync.Mutex
	store map[string]*memoryEntry
	now   func() time.Time
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{store: make(map[string]*memoryEntry), now: time.Now}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now()
	idx, resetAt := bucketIndex(now, window)

	l.mu.Lock()
	entry, ok := l.store[key]
	if !ok || entry.bucket != idx {
		entry = &memoryEntry{bucket: idx, expiresAt: resetAt}
		l.store[key] = entry
	}
	entry.count++
	count := entry.count
	l.mu.Unlock()

	return decide(count, limit, now, resetAt), nil
}

// Cleanup drops entries whose window has closed
func (l *MemoryLimiter) Cleanup() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, entry := range l.store {
		if !now.Before(entry.expiresAt) {
			delete(l.store, key)
			removed++
		}
	}
	return removed
}

// StartCleanup sweeps expired entries every interval until ctx is done
func (l *MemoryLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}
