package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is the trailing interval over which admitted calls are counted.
const Window = time.Minute

// Limiter admits or rejects calls per key within a sliding Window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 30
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 5 * time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// MemoryLimiter keeps, per key, the timestamps admitted within the window.
type MemoryLimiter struct {
	mu           sync.Mutex
	clients      map[string][]time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	limit           int
	cleanupInterval time.Duration
	now             func() time.Time
}

// NewMemoryLimiter creates a limiter and starts its cleanup goroutine.
// Call Stop to end it.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	cfg = cfg.withDefaults()
	rl := &MemoryLimiter{
		clients:         make(map[string][]time.Time),
		stopCleanup:     make(chan struct{}),
		limit:           cfg.RequestsPerMinute,
		cleanupInterval: cfg.CleanupInterval,
		now:             cfg.Now,
	}
	go rl.startCleanup()
	return rl
}

// Allow evicts timestamps older than the window, then rejects without
// recording when the survivors reach the limit.
func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	hits := evict(rl.clients[key], now.Add(-Window))
	if len(hits) >= rl.limit {
		rl.clients[key] = hits
		return false, nil
	}
	rl.clients[key] = append(hits, now)
	return true, nil
}

// evict drops the leading timestamps before cutoff; hits is ordered.
func evict(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && hits[i].Before(cutoff) {
		i++
	}
	return hits[i:]
}

func (rl *MemoryLimiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes keys whose window is empty.
func (rl *MemoryLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-Window)
	for key, hits := range rl.clients {
		if hits = evict(hits, cutoff); len(hits) == 0 {
			delete(rl.clients, key)
		} else {
			rl.clients[key] = hits
		}
	}
}

// ActiveKeys returns the number of currently tracked keys.
func (rl *MemoryLimiter) ActiveKeys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop shuts down the cleanup goroutine.
func (rl *MemoryLimiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
