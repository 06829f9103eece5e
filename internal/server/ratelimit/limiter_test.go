package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 5, 0, time.UTC)}
}

// exerciseLimiter runs the behaviour every backend must share.
func exerciseLimiter(t *testing.T, l Limiter, clock *fakeClock) {
	t.Helper()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "user:a")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 3-i, res.Remaining)
		assert.Equal(t, time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC), res.ResetAt)
	}

	res, err := l.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)

	// Keys are independent.
	res, err = l.Allow(ctx, "user:b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// A new window starts fresh.
	clock.advance(time.Minute)
	res, err = l.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestMemoryLimiter(t *testing.T) {
	clock := newClock()
	l := NewMemoryLimiter(3, time.Minute)
	l.now = clock.now

	exerciseLimiter(t, l, clock)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l := NewMemoryLimiter(50, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := l.Allow(context.Background(), "k")
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestMemoryLimiter_SweepsStaleWindows(t *testing.T) {
	clock := newClock()
	l := NewMemoryLimiter(1, time.Minute)
	l.now = clock.now

	for i := 0; i < 10; i++ {
		_, _ = l.Allow(context.Background(), fmt.Sprintf("k%d", i))
	}
	require.Equal(t, 10, l.Len())

	clock.advance(2 * time.Minute)
	for i := 0; i < sweepEvery; i++ {
		_, _ = l.Allow(context.Background(), "fresh")
	}
	assert.Equal(t, 1, l.Len())
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter(t *testing.T) {
	_, client := newTestRedis(t)
	clock := newClock()
	l := NewRedisLimiter(client, 3, time.Minute, logging.Nop())
	l.now = clock.now

	exerciseLimiter(t, l, clock)
}

func TestRedisLimiter_SetsExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	clock := newClock()
	l := NewRedisLimiter(client, 3, time.Minute, logging.Nop())
	l.now = clock.now

	_, err := l.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)

	key := fmt.Sprintf("%sip:1.2.3.4:%d", redisKeyPrefix, windowStart(clock.now(), time.Minute).Unix())
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 2*time.Minute, mr.TTL(key))
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, 1, time.Minute, logging.Nop())
	mr.Close()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(context.Background(), "user:a")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	require.Error(t, err)
}
