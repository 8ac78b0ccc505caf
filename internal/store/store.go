// Package store provides trade persistence.
package store

import (
	"context"
	"time"

	"dca-trader/internal/models"
)

// TradeRecord is a persisted trade, open or closed.
type TradeRecord struct {
	ID            string
	Symbol        string
	Exchange      models.ExchangeName
	MarketType    models.MarketType
	Side          models.Side
	Leverage      float64
	PositionSize  float64
	EntryPrice    float64
	StopLossPrice float64
	TakeProfit    float64
	UnrealizedPnL float64
	RealizedPnL   float64
	Status        TradeStatus
	StrategyID    string
	SignalID      string
	PayloadJSON   string
	OpenedAt      time.Time
	ClosedAt      time.Time
}

// TradeStatus is the lifecycle state of a trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
)

// ActiveTrade converts a record into the shape the portfolio
// analyzer consumes.
func (r TradeRecord) ActiveTrade() models.ActiveTrade {
	return models.ActiveTrade{
		ID:            r.ID,
		Symbol:        r.Symbol,
		Side:          r.Side,
		Exchange:      r.Exchange,
		PositionSize:  r.PositionSize,
		EntryPrice:    r.EntryPrice,
		UnrealizedPnL: r.UnrealizedPnL,
		OpenedAt:      r.OpenedAt,
	}
}

// TradeStore persists trades and their execution payloads.
type TradeStore interface {
	// OpenTrade inserts a new open trade.
	OpenTrade(ctx context.Context, record TradeRecord) error

	// CloseTrade marks a trade closed with its realized P&L.
	CloseTrade(ctx context.Context, id string, realizedPnL float64, closedAt time.Time) error

	// GetTrade fetches a trade by ID.
	GetTrade(ctx context.Context, id string) (*TradeRecord, error)

	// ListOpenTrades returns all open trades, oldest first.
	ListOpenTrades(ctx context.Context) ([]TradeRecord, error)

	// UpdateUnrealizedPnL updates the mark-to-market P&L of an open
	// trade.
	UpdateUnrealizedPnL(ctx context.Context, id string, pnl float64) error

	// LastTradeTime returns the open time of the most recent trade
	// for a symbol, or the zero time when none exists.
	LastTradeTime(ctx context.Context, symbol string) (time.Time, error)

	// Close releases the underlying resources.
	Close() error
}
