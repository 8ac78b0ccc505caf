package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsTracker_Returns(t *testing.T) {
	tracker := NewStatsTracker(10)

	tracker.Observe("BTCUSDT", 100, 0)
	tracker.Observe("BTCUSDT", 110, 0)
	tracker.Observe("BTCUSDT", 99, 0)

	returns := tracker.Returns("BTCUSDT", 10)
	require.Len(t, returns, 2)
	assert.InDelta(t, 10, returns[0], 1e-9)
	assert.InDelta(t, -10, returns[1], 1e-9)

	assert.Nil(t, tracker.Returns("ETHUSDT", 10))
}

func TestStatsTracker_ReturnsCapped(t *testing.T) {
	tracker := NewStatsTracker(100)
	for i := 0; i < 10; i++ {
		tracker.Observe("BTCUSDT", 100+float64(i), 0)
	}
	assert.Len(t, tracker.Returns("BTCUSDT", 3), 3)
}

func TestStatsTracker_WindowEviction(t *testing.T) {
	tracker := NewStatsTracker(5)
	for i := 0; i < 20; i++ {
		tracker.Observe("BTCUSDT", 100+float64(i), 0)
	}
	assert.Len(t, tracker.Returns("BTCUSDT", 100), 5)
}

func TestStatsTracker_Volatility(t *testing.T) {
	tracker := NewStatsTracker(10)

	// Constant price: zero volatility.
	tracker.Observe("FLAT", 100, 0)
	tracker.Observe("FLAT", 100, 0)
	tracker.Observe("FLAT", 100, 0)
	assert.Zero(t, tracker.Volatility("FLAT"))

	// Alternating +10%/-10% returns have a nonzero stddev.
	tracker.Observe("CHOP", 100, 0)
	tracker.Observe("CHOP", 110, 0)
	tracker.Observe("CHOP", 99, 0)
	tracker.Observe("CHOP", 108.9, 0)
	assert.Greater(t, tracker.Volatility("CHOP"), 0.05)

	// Unknown or underobserved symbols report zero.
	assert.Zero(t, tracker.Volatility("UNKNOWN"))
}

func TestStatsTracker_Snapshot(t *testing.T) {
	tracker := NewStatsTracker(10)
	assert.Nil(t, tracker.Snapshot("BTCUSDT"))

	tracker.Observe("BTCUSDT", 50000, 2000000)
	snap := tracker.Snapshot("BTCUSDT")
	require.NotNil(t, snap)
	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.Equal(t, 50000.0, snap.Price)
	assert.Equal(t, 2000000.0, snap.Volume24h)
	assert.False(t, snap.Timestamp.IsZero())
}

func TestStatsTracker_IgnoresBadPrices(t *testing.T) {
	tracker := NewStatsTracker(10)
	tracker.Observe("BTCUSDT", 0, 0)
	tracker.Observe("BTCUSDT", -5, 0)
	assert.Nil(t, tracker.Snapshot("BTCUSDT"))
}
