package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dca-trader/internal/cache"
	apperrors "dca-trader/internal/errors"
	"dca-trader/internal/exchange"
	"dca-trader/internal/models"
	"dca-trader/internal/resilience"
	"dca-trader/internal/store"
	"dca-trader/pkg/utils"
)

// ExecutionResult reports what the executor did with a payload.
type ExecutionResult struct {
	TradeID        string
	InitialOrderID string
	DCAOrderIDs    []string
	PlacedAt       time.Time
}

// Executor submits execution payloads to an exchange adapter and
// records the resulting trade. Orders are retried on transient
// failures and throttled per exchange.
type Executor struct {
	adapters map[models.ExchangeName]exchange.Adapter
	trades   store.TradeStore
	limiter  *cache.RateLimiter
	breakers *resilience.BreakerSet
	retry    utils.RetryConfig
	logger   zerolog.Logger
}

// NewExecutor creates an executor over the given adapters. The trade
// store and rate limiter may be nil, disabling persistence and
// throttling respectively.
func NewExecutor(adapters map[models.ExchangeName]exchange.Adapter, trades store.TradeStore, limiter *cache.RateLimiter, logger zerolog.Logger) *Executor {
	return &Executor{
		adapters: adapters,
		trades:   trades,
		limiter:  limiter,
		breakers: resilience.NewBreakerSet(resilience.DefaultBreakerConfig()),
		retry:    utils.DefaultRetryConfig(),
		logger:   logger.With().Str("component", "executor").Logger(),
	}
}

// Execute places the initial order and the DCA ladder described by
// the payload, then persists the open trade.
func (e *Executor) Execute(ctx context.Context, payload *ExecutionPayload) (*ExecutionResult, error) {
	if payload == nil {
		return nil, fmt.Errorf("nil payload")
	}

	adapter, ok := e.adapters[payload.Exchange]
	if !ok {
		return nil, fmt.Errorf("no adapter configured for %q", payload.Exchange)
	}
	if e.limiter != nil && !e.limiter.Allow(string(payload.Exchange)) {
		return nil, apperrors.ErrRateLimited
	}
	breaker := e.breakers.Get(string(payload.Exchange))
	if err := breaker.Allow(); err != nil {
		return nil, err
	}

	logger := e.logger.With().
		Str("exchange", string(payload.Exchange)).
		Str("symbol", payload.Symbol).
		Str("side", string(payload.Side)).
		Logger()

	if payload.MarketType == models.MarketFutures && payload.Leverage > 1 {
		err := utils.Retry(ctx, e.retry, func() error {
			return adapter.SetLeverage(ctx, payload.Symbol, payload.Leverage)
		})
		breaker.Record(err)
		if err != nil {
			return nil, fmt.Errorf("setting leverage: %w", err)
		}
	}

	initialUSD := payload.Capital.TotalUSD * payload.Capital.InitialOrderPct / 100
	initial, err := utils.RetryWithResult(ctx, e.retry, func() (*exchange.OrderResult, error) {
		return adapter.PlaceOrder(ctx, exchange.Order{
			Symbol:        payload.Symbol,
			Side:          payload.Side,
			MarketType:    payload.MarketType,
			AmountUSD:     initialUSD,
			ClientOrderID: payload.Metadata.IdempotencyKey,
		})
	})
	breaker.Record(err)
	if err != nil {
		return nil, fmt.Errorf("placing initial order: %w", err)
	}
	logger.Info().Str("order_id", initial.OrderID).Float64("amount_usd", initialUSD).Msg("Initial order placed")

	result := &ExecutionResult{
		InitialOrderID: initial.OrderID,
		PlacedAt:       time.Now().UTC(),
	}

	if payload.DCA.Enabled {
		for _, level := range payload.DCA.Levels {
			order, err := utils.RetryWithResult(ctx, e.retry, func() (*exchange.OrderResult, error) {
				return adapter.PlaceOrder(ctx, exchange.Order{
					Symbol:        payload.Symbol,
					Side:          payload.Side,
					MarketType:    payload.MarketType,
					Price:         level.EntryPrice,
					AmountUSD:     level.Amount,
					ClientOrderID: fmt.Sprintf("%s-dca%d", payload.Metadata.IdempotencyKey, level.Level),
				})
			})
			breaker.Record(err)
			if err != nil {
				// The position is already partially open; report the
				// failure but keep what was placed.
				logger.Error().Err(err).Int("level", level.Level).Msg("DCA order failed")
				return result, fmt.Errorf("placing DCA level %d: %w", level.Level, err)
			}
			result.DCAOrderIDs = append(result.DCAOrderIDs, order.OrderID)
		}
	}

	if e.trades != nil {
		record, err := e.buildRecord(payload, result)
		if err != nil {
			return result, err
		}
		if err := e.trades.OpenTrade(ctx, record); err != nil {
			return result, err
		}
		result.TradeID = record.ID
		logger.Info().Str("trade_id", record.ID).Msg("Trade recorded")
	}
	return result, nil
}

func (e *Executor) buildRecord(payload *ExecutionPayload, result *ExecutionResult) (store.TradeRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return store.TradeRecord{}, fmt.Errorf("encoding payload: %w", err)
	}

	var entry float64
	if len(payload.DCA.Levels) > 0 {
		entry = payload.DCA.Levels[0].EntryPrice
	}

	return store.TradeRecord{
		ID:            payload.Metadata.IdempotencyKey,
		Symbol:        payload.Symbol,
		Exchange:      payload.Exchange,
		MarketType:    payload.MarketType,
		Side:          payload.Side,
		Leverage:      payload.Leverage,
		PositionSize:  payload.Capital.TotalUSD,
		EntryPrice:    entry,
		StopLossPrice: payload.Risk.StopLossPrice,
		TakeProfit:    payload.Risk.TakeProfitPrice,
		Status:        store.StatusOpen,
		StrategyID:    payload.Metadata.StrategyID,
		SignalID:      payload.Metadata.SignalID,
		PayloadJSON:   string(raw),
		OpenedAt:      result.PlacedAt,
	}, nil
}
