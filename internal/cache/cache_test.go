package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Stop()

	c.Set("price:BTCUSDT", 50000.0)
	v, ok := c.Get("price:BTCUSDT")
	assert.True(t, ok)
	assert.Equal(t, 50000.0, v)

	_, ok = c.Get("price:ETHUSDT")
	assert.False(t, ok)
}

func TestTTLCache_LazyExpiry(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Stop()

	c.SetWithTTL("k", "v", 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestTTLCache_Delete(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Stop()

	c.Set("k", 1)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCache_StopIsIdempotent(t *testing.T) {
	c := NewTTLCache(time.Minute)
	c.Start()
	c.Stop()
	c.Stop()
}

func TestRateLimiter_Allow(t *testing.T) {
	r := NewRateLimiter(2, time.Minute)
	defer r.Stop()

	assert.True(t, r.Allow("binance"))
	assert.True(t, r.Allow("binance"))
	assert.False(t, r.Allow("binance"))

	// Separate keys track separately.
	assert.True(t, r.Allow("okx"))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	r := NewRateLimiter(1, 10*time.Millisecond)
	defer r.Stop()

	assert.True(t, r.Allow("k"))
	assert.False(t, r.Allow("k"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, r.Allow("k"))
}
