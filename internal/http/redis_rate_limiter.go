package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "teamboard:ratelimit:"
	redisCallTimeout = 250 * time.Millisecond
)

// redisRateLimiter shares fixed windows between API replicas.
type redisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRateLimiter connects to Redis and fails when it does not answer a ping.
func NewRedisRateLimiter(addr, password string, db int, logger *slog.Logger) (RateLimiter, error) {
	rl := newRedisRateLimiter(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), logger)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rl.Ping(ctx); err != nil {
		rl.Close()
		return nil, fmt.Errorf("connect rate limiter redis %s: %w", addr, err)
	}
	return rl, nil
}

func newRedisRateLimiter(client *redis.Client, logger *slog.Logger) *redisRateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisRateLimiter{client: client, logger: logger}
}

// Allow counts the hit, opens the window on the first one and reads its remaining
// lifetime in a single transaction. Requests pass when Redis cannot be reached.
func (rl *redisRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	redisKey := redisKeyPrefix + key
	var (
		hits *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hits = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, window)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		rl.logger.Warn("rate limiter redis unavailable, allowing request", "key", key, "error", err)
		return rateDecision{allowed: true}
	}
	left := ttl.Val()
	if left <= 0 {
		left = window
	}
	count := int(hits.Val())
	return rateDecision{allowed: count <= limit, count: count, windowEnd: time.Now().Add(left)}
}

// Ping reports whether Redis answers.
func (rl *redisRateLimiter) Ping(ctx context.Context) error {
	return rl.client.Ping(ctx).Err()
}

func (rl *redisRateLimiter) Backend() string { return "redis" }

func (rl *redisRateLimiter) Close() {
	_ = rl.client.Close()
}
