// Package marketdata streams live prices and maintains rolling
// per-symbol statistics consumed by the risk engine.
package marketdata

import (
	"math"
	"sync"
	"time"

	"dca-trader/internal/models"
)

// StatsTracker keeps a rolling window of prices per symbol and
// derives returns, volatility, and 24h volume from them. It
// implements the returns provider consumed by the portfolio
// correlation estimator.
type StatsTracker struct {
	mu      sync.RWMutex
	window  int
	symbols map[string]*symbolStats
}

type symbolStats struct {
	prices    []float64
	returns   []float64
	volume24h float64
	updatedAt time.Time
}

// NewStatsTracker creates a tracker keeping up to window observations
// per symbol.
func NewStatsTracker(window int) *StatsTracker {
	if window <= 0 {
		window = 100
	}
	return &StatsTracker{
		window:  window,
		symbols: make(map[string]*symbolStats),
	}
}

// Observe records a new price (and 24h volume, when known) for a
// symbol.
func (t *StatsTracker) Observe(symbol string, price, volume24h float64) {
	if price <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stats, ok := t.symbols[symbol]
	if !ok {
		stats = &symbolStats{}
		t.symbols[symbol] = stats
	}

	if n := len(stats.prices); n > 0 {
		prev := stats.prices[n-1]
		stats.returns = append(stats.returns, (price-prev)/prev*100)
		if len(stats.returns) > t.window {
			stats.returns = stats.returns[1:]
		}
	}
	stats.prices = append(stats.prices, price)
	if len(stats.prices) > t.window {
		stats.prices = stats.prices[1:]
	}
	if volume24h > 0 {
		stats.volume24h = volume24h
	}
	stats.updatedAt = time.Now()
}

// Returns reports up to n recent percentage returns for a symbol,
// newest last.
func (t *StatsTracker) Returns(symbol string, n int) []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats, ok := t.symbols[symbol]
	if !ok {
		return nil
	}
	r := stats.returns
	if len(r) > n {
		r = r[len(r)-n:]
	}
	out := make([]float64, len(r))
	copy(out, r)
	return out
}

// Volatility returns the standard deviation of recent returns as a
// fraction (0.05 = 5%), or 0 when there is not enough history.
func (t *StatsTracker) Volatility(symbol string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats, ok := t.symbols[symbol]
	if !ok || len(stats.returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range stats.returns {
		mean += r
	}
	mean /= float64(len(stats.returns))

	var variance float64
	for _, r := range stats.returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(stats.returns) - 1)

	return math.Sqrt(variance) / 100
}

// Snapshot returns the latest market data view for a symbol, or nil
// when the symbol has never been observed.
func (t *StatsTracker) Snapshot(symbol string) *models.MarketData {
	t.mu.RLock()
	stats, ok := t.symbols[symbol]
	if !ok || len(stats.prices) == 0 {
		t.mu.RUnlock()
		return nil
	}
	price := stats.prices[len(stats.prices)-1]
	volume := stats.volume24h
	updated := stats.updatedAt
	t.mu.RUnlock()

	return &models.MarketData{
		Symbol:     symbol,
		Price:      price,
		Volatility: t.Volatility(symbol),
		Volume24h:  volume,
		Timestamp:  updated,
	}
}
