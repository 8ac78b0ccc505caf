package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dca-trader/internal/errors"
	"dca-trader/internal/models"
)

func testSignal() *models.Signal {
	return &models.Signal{
		ID:            "sig-1",
		Symbol:        "BTC/USDT",
		SignalType:    models.SideBuy,
		EntryPrice:    50000,
		StopLossPrice: 47500,
		Confidence:    80,
	}
}

func TestComputeTradeSizing_RiskBasedFormula(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()

	// entry 50000, stop 47500 is a 5% stop distance; 2% risk of a
	// 10000 balance gives a 200 max loss and a 4000 position.
	result, err := calc.ComputeTradeSizing(testSignal(), &settings, 10000, 2, 1, false, 0)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.InDelta(t, 200, result.MaxLossAmount, 1e-9)
	assert.InDelta(t, 5, result.ExpectedLossPercent, 1e-9)
	assert.InDelta(t, 4000, result.PositionSize, 1e-9)
	assert.InDelta(t, 4000, result.MarginUsed, 1e-9)
	assert.InDelta(t, 1000, result.InitialAmount, 1e-9) // 25% initial order
}

func TestComputeTradeSizing_NothingToCompute(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()

	cases := []struct {
		name     string
		signal   *models.Signal
		settings *models.BotSettings
		balance  float64
	}{
		{"nil signal", nil, &settings, 10000},
		{"nil settings", testSignal(), nil, 10000},
		{"zero balance", testSignal(), &settings, 0},
		{"negative balance", testSignal(), &settings, -50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := calc.ComputeTradeSizing(tc.signal, tc.settings, tc.balance, 2, 1, false, 0)
			assert.NoError(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestComputeTradeSizing_ClampedToBalance(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()

	// A tight 0.1% stop would size far beyond the balance.
	signal := testSignal()
	signal.StopLossPrice = 49950

	result, err := calc.ComputeTradeSizing(signal, &settings, 10000, 2, 1, false, 0)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 10000, result.PositionSize, 1e-9)
}

func TestComputeTradeSizing_Leverage(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()

	result, err := calc.ComputeTradeSizing(testSignal(), &settings, 10000, 2, 10, false, 0)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 400, result.MarginUsed, 1e-9)

	_, err = calc.ComputeTradeSizing(testSignal(), &settings, 10000, 2, 0.5, false, 0)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "leverage", verr.Field)
}

func TestComputeTradeSizing_DegenerateStopLoss(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()

	cases := []struct {
		name string
		side models.Side
		stop float64
	}{
		{"stop equals entry", models.SideBuy, 50000},
		{"long stop above entry", models.SideBuy, 51000},
		{"short stop below entry", models.SideSell, 49000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signal := testSignal()
			signal.SignalType = tc.side
			signal.StopLossPrice = tc.stop

			result, err := calc.ComputeTradeSizing(signal, &settings, 10000, 2, 1, false, 0)
			assert.Nil(t, result)
			var slerr *apperrors.InvalidStopLossError
			require.True(t, errors.As(err, &slerr))
			assert.False(t, math.IsInf(slerr.StopPrice, 0))
		})
	}
}

func TestComputeTradeSizing_DefaultStopLossFallback(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()
	settings.DefaultStopLossPct = 4

	signal := testSignal()
	signal.StopLossPrice = 0

	result, err := calc.ComputeTradeSizing(signal, &settings, 10000, 2, 1, false, 0)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 4, result.ExpectedLossPercent, 1e-9)
	assert.InDelta(t, 5000, result.PositionSize, 1e-9)
}

func TestComputeTradeSizing_DCALadder(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()

	result, err := calc.ComputeTradeSizing(testSignal(), &settings, 10000, 2, 1, true, 3)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.DCALevels, 3)

	// Remaining 3000 split evenly; drops at 2/4/6 percent.
	var sum float64
	for i, lvl := range result.DCALevels {
		assert.Equal(t, i+1, lvl.Level)
		assert.InDelta(t, float64(i+1)*2, lvl.PriceDropPercent, 1e-9)
		assert.InDelta(t, 50000*(1-float64(i+1)*2/100), lvl.EntryPrice, 1e-6)
		assert.InDelta(t, 1000, lvl.Amount, 1e-9)
		sum += lvl.Amount
	}
	assert.InDelta(t, result.PositionSize, result.InitialAmount+sum, 1e-6)

	// Average entry falls as fills land below entry for a long.
	prev := result.EntryPrice
	for _, lvl := range result.DCALevels {
		assert.Less(t, lvl.AverageEntry, prev)
		assert.Greater(t, lvl.AverageEntry, lvl.EntryPrice)
		prev = lvl.AverageEntry
	}

	// Cumulative investment is strictly increasing.
	for i := 1; i < len(result.DCALevels); i++ {
		assert.Greater(t, result.DCALevels[i].CumulativeAmount, result.DCALevels[i-1].CumulativeAmount)
	}
}

func TestComputeTradeSizing_DCACustomOffsets(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()
	settings.DCACustomOffsets = []float64{1.5, 3.5, 8}

	result, err := calc.ComputeTradeSizing(testSignal(), &settings, 10000, 2, 1, true, 3)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.DCALevels, 3)
	for i, want := range settings.DCACustomOffsets {
		assert.InDelta(t, want, result.DCALevels[i].PriceDropPercent, 1e-9)
	}
}

func TestComputeTradeSizing_ShortLadderPricesAboveEntry(t *testing.T) {
	calc := NewCalculator()
	settings := models.DefaultBotSettings()

	signal := testSignal()
	signal.SignalType = models.SideSell
	signal.StopLossPrice = 52500

	result, err := calc.ComputeTradeSizing(signal, &settings, 10000, 2, 1, true, 2)
	require.NoError(t, err)
	require.NotNil(t, result)
	for _, lvl := range result.DCALevels {
		assert.Greater(t, lvl.EntryPrice, signal.EntryPrice)
		assert.Less(t, lvl.AverageEntry, lvl.EntryPrice)
	}
}
