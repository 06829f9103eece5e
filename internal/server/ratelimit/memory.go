package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many calls pass between purges of stale windows.
const sweepEvery = 1024

type memoryWindow struct {
	start time.Time
	count int64
}

// MemoryLimiter keeps counters in a map. It is exact for a single process
// and forgets everything on restart.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*memoryWindow
	calls   int
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*memoryWindow),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()
	start := windowStart(now, l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(start)
	}

	w, ok := l.windows[key]
	if !ok || w.start.Before(start) {
		w = &memoryWindow{start: start}
		l.windows[key] = w
	}
	w.count++

	return decide(w.count, l.limit, start.Add(l.window)), nil
}

func (l *MemoryLimiter) sweep(current time.Time) {
	for k, w := range l.windows {
		if w.start.Before(current) {
			delete(l.windows, k)
		}
	}
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
