package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter tracks how many requests a key (typically "user:api:version") has
// made within the current fixed window, resetting the count once the window
// elapses.
type Counter interface {
	// Allow increments key's count and reports whether it is still within
	// limit for the current window; when it is not, it also returns the
	// remaining time until the window resets (zero when allowed).
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// MemoryCounter is a process-local window counter, grounded on the teacher's
// internal/idempotency.MemoryStore: a map guarded by a mutex plus a
// background sweep goroutine that evicts windows whose reset time has
// passed, keeping memory bounded under sustained unique-key traffic.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*windowState
	done    chan struct{}
}

type windowState struct {
	count     int
	resetAt   time.Time
	touchedAt time.Time
}

// NewMemoryCounter creates a counter with a background sweep every interval.
func NewMemoryCounter(sweepInterval time.Duration) *MemoryCounter {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	c := &MemoryCounter{
		windows: make(map[string]*windowState),
		done:    make(chan struct{}),
	}
	go c.sweepLoop(sweepInterval)
	return c
}

func (c *MemoryCounter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCounter) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, w := range c.windows {
		if now.After(w.resetAt) {
			delete(c.windows, key)
		}
	}
}

// Stop terminates the background sweep goroutine.
func (c *MemoryCounter) Stop() {
	close(c.done)
}

// Allow implements Counter.
func (c *MemoryCounter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	w, ok := c.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &windowState{count: 0, resetAt: now.Add(window)}
		c.windows[key] = w
	}
	w.touchedAt = now
	w.count++

	if w.count > limit {
		return false, w.resetAt.Sub(now), nil
	}
	return true, 0, nil
}

// RedisCounter is a distributed window counter for deployments with
// server.workers > 1 (config_store.backend=EXTERNAL), using Redis INCR +
// EXPIRE so every worker shares the same count.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps an existing Redis client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Allow implements Counter using an atomic INCR plus a conditional EXPIRE, so
// concurrent requests across workers never under- or over-count.
func (c *RedisCounter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count > int64(limit) {
		ttl, err := c.client.TTL(ctx, key).Result()
		if err != nil {
			ttl = window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}
