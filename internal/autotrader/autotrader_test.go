package autotrader

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-trader/internal/exchange"
	"dca-trader/internal/execution"
	"dca-trader/internal/marketdata"
	"dca-trader/internal/models"
	"dca-trader/internal/risk"
	"dca-trader/internal/store"
)

type stubAdapter struct {
	orders int
}

func (s *stubAdapter) Name() models.ExchangeName { return models.ExchangeBinance }

func (s *stubAdapter) PlaceOrder(ctx context.Context, order exchange.Order) (*exchange.OrderResult, error) {
	s.orders++
	return &exchange.OrderResult{OrderID: "o-1", Symbol: order.Symbol, Status: "NEW"}, nil
}

func (s *stubAdapter) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	return nil
}

func (s *stubAdapter) GetPrice(ctx context.Context, symbol string, marketType models.MarketType) (float64, error) {
	return 50000, nil
}

func newTestTrader(t *testing.T, settings models.BotSettings) (*AutoTrader, *stubAdapter, store.TradeStore) {
	t.Helper()

	trades, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { trades.Close() })

	adapter := &stubAdapter{}
	executor := execution.NewExecutor(
		map[models.ExchangeName]exchange.Adapter{models.ExchangeBinance: adapter},
		trades, nil, zerolog.Nop(),
	)

	params, err := risk.NewParameterStore(risk.DefaultRiskParameters())
	require.NoError(t, err)

	stats := marketdata.NewStatsTracker(50)
	trader := New(
		&settings, params,
		risk.NewCalculator(),
		risk.NewAssessor(),
		risk.NewPortfolioAnalyzer(risk.NewCorrelationEstimator(stats, 50)),
		executor, trades, stats, nil, zerolog.Nop(),
	)
	return trader, adapter, trades
}

func autoSignal() *models.Signal {
	return &models.Signal{
		ID:              "sig-1",
		Symbol:          "BTC/USDT",
		SignalType:      models.SideBuy,
		EntryPrice:      50000,
		StopLossPrice:   47500,
		TakeProfitPrice: 55000,
		Confidence:      80,
	}
}

func TestAutoTrader_ExecutesCleanSignal(t *testing.T) {
	trader, adapter, trades := newTestTrader(t, models.DefaultBotSettings())

	result, err := trader.HandleSignal(context.Background(), autoSignal())
	require.NoError(t, err)
	assert.True(t, result.Executed)
	require.NotNil(t, result.Sizing)
	assert.InDelta(t, 4000, result.Sizing.PositionSize, 1e-9)

	// Initial order plus three DCA levels.
	assert.Equal(t, 4, adapter.orders)

	open, err := trades.ListOpenTrades(context.Background())
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestAutoTrader_DefaultStopBacksRiskAssessment(t *testing.T) {
	trader, _, _ := newTestTrader(t, models.DefaultBotSettings())

	signal := autoSignal()
	signal.StopLossPrice = 0

	result, err := trader.HandleSignal(context.Background(), signal)
	require.NoError(t, err)
	require.True(t, result.Executed)
	require.NotNil(t, result.Assessment)

	// The default 5% stop stands in for the missing one: 47500 against
	// the 55000 target is a 2.0 risk/reward, not a degenerate zero stop.
	assert.InDelta(t, 47500, result.Assessment.SuggestedStopLoss, 1e-9)
	assert.InDelta(t, 2.0, result.Assessment.RiskRewardRatio, 1e-9)
	assert.Equal(t, risk.RecommendationApprove, result.Assessment.Recommendation)
	assert.InDelta(t, 4000, result.Assessment.MaxPositionSize, 1e-9)
}

func TestAutoTrader_BlockedByFilter(t *testing.T) {
	settings := models.DefaultBotSettings()
	settings.Enabled = false
	trader, adapter, _ := newTestTrader(t, settings)

	result, err := trader.HandleSignal(context.Background(), autoSignal())
	require.NoError(t, err)
	assert.False(t, result.Executed)
	assert.NotEmpty(t, result.BlockReason)
	assert.Zero(t, adapter.orders)
}

func TestAutoTrader_RejectedByRiskAssessment(t *testing.T) {
	trader, adapter, _ := newTestTrader(t, models.DefaultBotSettings())

	// High volatility plus a poor risk/reward pushes the score to 70.
	trader.stats.Observe("BTC/USDT", 100, 5000000)
	trader.stats.Observe("BTC/USDT", 120, 5000000)
	trader.stats.Observe("BTC/USDT", 95, 5000000)

	signal := autoSignal()
	signal.TakeProfitPrice = 51000

	result, err := trader.HandleSignal(context.Background(), signal)
	require.NoError(t, err)
	assert.False(t, result.Executed)
	assert.Contains(t, result.BlockReason, "risk assessment")
	assert.Zero(t, adapter.orders)
}

func TestAutoTrader_ReducesSize(t *testing.T) {
	trader, _, _ := newTestTrader(t, models.DefaultBotSettings())

	// Poor risk/reward alone scores 30; shallow 24h volume adds 15
	// for a REDUCE_SIZE verdict at 45.
	trader.stats.Observe("BTC/USDT", 50000, 500000)
	trader.stats.Observe("BTC/USDT", 50050, 500000)
	trader.stats.Observe("BTC/USDT", 50000, 500000)

	signal := autoSignal()
	signal.TakeProfitPrice = 51000

	result, err := trader.HandleSignal(context.Background(), signal)
	require.NoError(t, err)
	require.True(t, result.Executed)
	require.NotNil(t, result.Assessment)
	assert.Equal(t, risk.RecommendationReduceSize, result.Assessment.Recommendation)

	// Position halved from the 4000 the sizing formula produces.
	assert.InDelta(t, 2000, result.Sizing.PositionSize, 1e-9)
}

func TestAutoTrader_BlockedByPortfolioRisk(t *testing.T) {
	trader, adapter, trades := newTestTrader(t, models.DefaultBotSettings())

	// An open trade with a drawdown at the limit makes the portfolio
	// critical.
	record := store.TradeRecord{
		ID:           "t1",
		Symbol:       "ETH/USDT",
		Exchange:     models.ExchangeBinance,
		MarketType:   models.MarketFutures,
		Side:         models.SideBuy,
		Leverage:     1,
		PositionSize: 1000,
		EntryPrice:   3000,
		OpenedAt:     time.Now().UTC(),
	}
	require.NoError(t, trades.OpenTrade(context.Background(), record))
	require.NoError(t, trades.UpdateUnrealizedPnL(context.Background(), "t1", -1500))

	result, err := trader.HandleSignal(context.Background(), autoSignal())
	require.NoError(t, err)
	assert.False(t, result.Executed)
	assert.Zero(t, adapter.orders)

	// The block reason names the breached rule with its numbers.
	assert.Contains(t, result.BlockReason, "risk violation [drawdown]")
	assert.Contains(t, result.BlockReason, "current: 15.00")
	assert.Contains(t, result.BlockReason, "limit: 15.00")
}

func TestAutoTrader_BlockedByExposure(t *testing.T) {
	trader, adapter, trades := newTestTrader(t, models.DefaultBotSettings())

	// 90% of the balance deployed with no drawdown still blocks, and
	// the reason names the exposure rule.
	record := store.TradeRecord{
		ID:           "t1",
		Symbol:       "ETH/USDT",
		Exchange:     models.ExchangeBinance,
		MarketType:   models.MarketFutures,
		Side:         models.SideBuy,
		Leverage:     1,
		PositionSize: 9000,
		EntryPrice:   3000,
		OpenedAt:     time.Now().UTC(),
	}
	require.NoError(t, trades.OpenTrade(context.Background(), record))

	result, err := trader.HandleSignal(context.Background(), autoSignal())
	require.NoError(t, err)
	assert.False(t, result.Executed)
	assert.Zero(t, adapter.orders)
	assert.Contains(t, result.BlockReason, "risk violation [exposure]")
	assert.Contains(t, result.BlockReason, "current: 90.00")
}
