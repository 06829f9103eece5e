package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "filekeeper:rate:"

// RedisLimiter keeps counters in Redis so several server instances share
// one budget per key. Each window has its own key, incremented and given
// an expiry in a single MULTI/EXEC.
//
// Redis failures are logged and the request is admitted.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger logging.Logger
	now    func() time.Time
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, logger logging.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	start := windowStart(l.now(), l.window)
	resetAt := start.Add(l.window)
	redisKey := redisKeyPrefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, 2*l.window)
		return nil
	})
	if err != nil {
		l.logger.Error(ctx, "rate limit check failed, admitting request", "key", key, "error", err)
		return Result{Allowed: true, Limit: l.limit, Remaining: l.limit, ResetAt: resetAt}, nil
	}

	return decide(incr.Val(), l.limit, resetAt), nil
}
