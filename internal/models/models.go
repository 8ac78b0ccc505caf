// Package models provides domain models for the DCA trading application.
package models

import (
	"strings"
	"time"
)

// ExchangeName identifies a supported exchange.
type ExchangeName string

const (
	ExchangeBinance ExchangeName = "binance"
	ExchangeOKX     ExchangeName = "okx"
	ExchangeBybit   ExchangeName = "bybit"
)

// MarketType represents the market an order targets.
type MarketType string

const (
	MarketSpot    MarketType = "spot"
	MarketFutures MarketType = "futures"
)

// Side represents the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// IsLong returns true for BUY trades.
func (s Side) IsLong() bool {
	return s == SideBuy
}

// BaseAsset extracts the base asset from a trading pair symbol.
// Handles both slash-separated pairs ("BTC/USDT") and concatenated
// pairs ("BTCUSDT") with a known quote suffix.
func BaseAsset(symbol string) string {
	if i := strings.Index(symbol, "/"); i > 0 {
		return symbol[:i]
	}
	for _, quote := range []string{"USDT", "USDC", "BUSD", "USD", "BTC", "ETH"} {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return symbol[:len(symbol)-len(quote)]
		}
	}
	return symbol
}

// MarketData is a point-in-time snapshot of market conditions for a symbol,
// consumed by the risk assessment service.
type MarketData struct {
	Symbol     string
	Price      float64
	Volatility float64 // fractional, e.g. 0.05 = 5%
	Volume24h  float64 // quote currency
	Timestamp  time.Time
}

// ActiveTrade is an open position as reported by the active-trades store.
type ActiveTrade struct {
	ID            string
	Symbol        string
	Side          Side
	Exchange      ExchangeName
	PositionSize  float64 // quote currency value
	EntryPrice    float64
	UnrealizedPnL float64
	OpenedAt      time.Time
}
