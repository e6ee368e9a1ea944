package service

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
	Close() error
}

// NopLimiter allows every request.
type NopLimiter struct{}

func (NopLimiter) Allow(context.Context, string) bool { return true }
func (NopLimiter) Close() error                       { return nil }

// TokenBucket is a simple in-memory per-key rate limiter using the token bucket algorithm.
// It is safe for concurrent use. Stale buckets are automatically cleaned up until Close.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64 // maximum tokens
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a rate limiter that allows up to capacity tokens per key,
// refilling at the given rate (tokens per second). It starts a background goroutine
// that periodically removes stale buckets.
func NewTokenBucket(rate, capacity float64) *TokenBucket {
	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go tb.cleanup()
	return tb
}

// NewWindowLimiter returns a TokenBucket that admits requests per window,
// refilled evenly across the window.
func NewWindowLimiter(requests int, window time.Duration) *TokenBucket {
	return NewTokenBucket(float64(requests)/window.Seconds(), float64(requests))
}

// Allow reports whether the given key is allowed to proceed under the rate limit.
// Each call consumes one token. Returns false if the bucket is empty.
func (tb *TokenBucket) Allow(_ context.Context, key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Close stops the cleanup goroutine.
func (tb *TokenBucket) Close() error {
	tb.stopOnce.Do(func() { close(tb.stop) })
	return nil
}

// cleanup runs periodically and removes buckets that haven't been accessed in 10 minutes.
func (tb *TokenBucket) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-tb.stop:
			return
		case <-ticker.C:
			tb.mu.Lock()
			cutoff := tb.now().Add(-10 * time.Minute)
			for key, b := range tb.buckets {
				if b.last.Before(cutoff) {
					delete(tb.buckets, key)
				}
			}
			tb.mu.Unlock()
		}
	}
}
