// Package ratelimit implements fixed-window request limits keyed by an
// arbitrary string. Counters live in process memory or in Redis.
package ratelimit

import (
	"context"
	"time"
)

// Result describes one admission decision.
type Result struct {
	Allowed bool
	// Limit is the number of requests admitted per window.
	Limit int
	// Remaining is how many further requests the current window admits.
	Remaining int
	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// Limiter admits at most a fixed number of requests per key and window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// windowStart truncates now to the beginning of its window.
func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

func decide(count int64, limit int, resetAt time.Time) Result {
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: int(remaining),
		ResetAt:   resetAt,
	}
}
