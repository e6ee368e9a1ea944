package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared across instances through
// Redis. The increment and the expiry run in one MULTI/EXEC transaction.
// EXPIRE NX needs Redis 7 or later. Redis errors fail open.
type RedisLimiter struct {
	client  *redis.Client
	logger  *slog.Logger
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
}

// NewRedisLimiter connects to Redis and returns a limiter admitting limit
// requests per window for each key.
func NewRedisLimiter(ctx context.Context, opts *redis.Options, limit int, window time.Duration, logger *slog.Logger) (*RedisLimiter, error) {
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedisLimiter(client, limit, window, logger), nil
}

func newRedisLimiter(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client:  client,
		logger:  logger,
		limit:   limit,
		window:  window,
		prefix:  "taskdesk:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

// Allow increments the counter for key and reports whether it is still
// within the limit.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		// NX keeps the window fixed and repairs counters left without a TTL.
		pipe.ExpireNX(ctx, redisKey, rl.window)
		return nil
	})
	if err != nil {
		rl.logger.Error("redis rate limiter error", "op", "incr", "error", err)
		return true
	}
	return incr.Val() <= int64(rl.limit)
}

// Close releases the Redis connection pool.
func (rl *RedisLimiter) Close() error {
	return rl.client.Close()
}
