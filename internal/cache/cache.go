// Package cache provides in-memory TTL caching and request rate
// limiting. Instances are constructed by the composition root and
// passed to consumers; sweeping goroutines run only between Start and
// Stop.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is a map with per-entry expiry and a periodic sweep.
type TTLCache struct {
	mu            sync.RWMutex
	entries       map[string]entry
	defaultTTL    time.Duration
	sweepInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewTTLCache creates a cache with the given default TTL. The sweep
// goroutine is not started until Start is called; Get still expires
// entries lazily without it.
func NewTTLCache(defaultTTL time.Duration) *TTLCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &TTLCache{
		entries:       make(map[string]entry),
		defaultTTL:    defaultTTL,
		sweepInterval: defaultTTL,
		stop:          make(chan struct{}),
	}
}

// Start launches the periodic sweep.
func (c *TTLCache) Start() {
	go func() {
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (c *TTLCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Set stores a value with the default TTL.
func (c *TTLCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *TTLCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get returns the value for key, expiring it lazily if stale.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Delete removes a key.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, including any not yet swept.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTLCache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// RateLimiter counts requests per key within a sliding window.
type RateLimiter struct {
	mu       sync.Mutex
	counts   map[string][]time.Time
	limit    int
	window   time.Duration
	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter creates a limiter allowing limit requests per key
// within each window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counts: make(map[string][]time.Time),
		limit:  limit,
		window: window,
		stop:   make(chan struct{}),
	}
}

// Start launches periodic cleanup of stale per-key histories.
func (r *RateLimiter) Start() {
	go func() {
		ticker := time.NewTicker(r.window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.cleanup()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Allow records a request for key and reports whether it is within
// the limit.
func (r *RateLimiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.counts[key]
	kept := history[:0]
	for _, t := range history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= r.limit {
		r.counts[key] = kept
		return false
	}
	r.counts[key] = append(kept, now)
	return true
}

func (r *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-r.window)
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, history := range r.counts {
		kept := history[:0]
		for _, t := range history {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(r.counts, key)
		} else {
			r.counts[key] = kept
		}
	}
}
