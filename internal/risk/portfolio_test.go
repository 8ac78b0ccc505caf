package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-trader/internal/models"
)

func TestAnalyzePortfolioRisk_EmptyBook(t *testing.T) {
	analyzer := NewPortfolioAnalyzer(nil)

	risk := analyzer.AnalyzePortfolioRisk(nil, testRiskParams())

	assert.InDelta(t, 100, risk.DiversificationScore, 1e-9)
	assert.Zero(t, risk.TotalExposure)
	assert.Zero(t, risk.CurrentDrawdown)
	assert.Zero(t, risk.RiskUtilization)
	assert.Equal(t, RiskLevelLow, risk.OverallRiskLevel)
}

func TestAnalyzePortfolioRisk_ExposureAndUtilization(t *testing.T) {
	analyzer := NewPortfolioAnalyzer(nil)
	trades := []models.ActiveTrade{
		{Symbol: "BTC/USDT", PositionSize: 2000, UnrealizedPnL: 100},
		{Symbol: "ETH/USDT", PositionSize: 1000, UnrealizedPnL: -50},
	}

	risk := analyzer.AnalyzePortfolioRisk(trades, testRiskParams())

	assert.InDelta(t, 30, risk.TotalExposure, 1e-9)
	assert.InDelta(t, 40, risk.RiskUtilization, 1e-9) // 2 of 5 slots
	assert.InDelta(t, 100, risk.DiversificationScore, 1e-9)
}

func TestAnalyzePortfolioRisk_Diversification(t *testing.T) {
	analyzer := NewPortfolioAnalyzer(nil)

	// Two BTC trades and one ETH trade: 2 unique bases over 3 trades.
	trades := []models.ActiveTrade{
		{Symbol: "BTC/USDT", PositionSize: 1000},
		{Symbol: "BTCUSDT", PositionSize: 1000},
		{Symbol: "ETH/USDT", PositionSize: 1000},
	}

	risk := analyzer.AnalyzePortfolioRisk(trades, testRiskParams())
	assert.InDelta(t, 2.0/3.0*100, risk.DiversificationScore, 1e-9)
}

func TestAnalyzePortfolioRisk_DrawdownIgnoresGains(t *testing.T) {
	analyzer := NewPortfolioAnalyzer(nil)

	// Net PnL is positive; drawdown must stay zero, not go negative.
	trades := []models.ActiveTrade{
		{Symbol: "BTC/USDT", PositionSize: 1000, UnrealizedPnL: 500},
		{Symbol: "ETH/USDT", PositionSize: 1000, UnrealizedPnL: -200},
	}

	risk := analyzer.AnalyzePortfolioRisk(trades, testRiskParams())
	assert.Zero(t, risk.CurrentDrawdown)
}

func TestAnalyzePortfolioRisk_RiskLevelTiers(t *testing.T) {
	analyzer := NewPortfolioAnalyzer(nil)
	params := testRiskParams() // balance 10000, drawdown limit 15%

	cases := []struct {
		name   string
		pnl    float64
		size   float64
		expect RiskLevel
	}{
		{"flat and small", 0, 1000, RiskLevelLow},
		{"medium drawdown", -700, 1000, RiskLevelMedium},   // 7% > 0.4*15
		{"high drawdown", -1100, 1000, RiskLevelHigh},      // 11% > 0.7*15
		{"critical drawdown", -1600, 1000, RiskLevelCritical},
		{"medium exposure", 0, 4500, RiskLevelMedium},
		{"high exposure", 0, 6500, RiskLevelHigh},
		{"critical exposure", 0, 8500, RiskLevelCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trades := []models.ActiveTrade{
				{Symbol: "BTC/USDT", PositionSize: tc.size, UnrealizedPnL: tc.pnl},
			}
			risk := analyzer.AnalyzePortfolioRisk(trades, params)
			assert.Equal(t, tc.expect, risk.OverallRiskLevel)
		})
	}
}

func TestAnalyzePortfolioRisk_DrawdownAtLimitIsCritical(t *testing.T) {
	analyzer := NewPortfolioAnalyzer(nil)
	params := testRiskParams()

	// Drawdown exactly at the 15% limit.
	trades := []models.ActiveTrade{
		{Symbol: "BTC/USDT", PositionSize: 1000, UnrealizedPnL: -1500},
	}
	risk := analyzer.AnalyzePortfolioRisk(trades, params)
	assert.InDelta(t, 15, risk.CurrentDrawdown, 1e-9)
	assert.Equal(t, RiskLevelCritical, risk.OverallRiskLevel)
}

type stubReturns map[string][]float64

func (s stubReturns) Returns(symbol string, n int) []float64 {
	r := s[symbol]
	if len(r) > n {
		return r[len(r)-n:]
	}
	return r
}

func TestCorrelationEstimator_Matrix(t *testing.T) {
	provider := stubReturns{
		"BTC/USDT": {1, 2, -1, 3, 0.5},
		"ETH/USDT": {1, 2, -1, 3, 0.5}, // identical, perfectly correlated
		"SOL/USDT": {0.2},              // too short, excluded
	}
	estimator := NewCorrelationEstimator(provider, 50)

	matrix := estimator.Matrix([]string{"BTC/USDT", "ETH/USDT", "SOL/USDT"})
	require.Contains(t, matrix, "BTC/USDT")
	require.Contains(t, matrix, "ETH/USDT")
	assert.NotContains(t, matrix, "SOL/USDT")
	assert.InDelta(t, 1.0, matrix["BTC/USDT"], 1e-9)
	assert.InDelta(t, 1.0, matrix["ETH/USDT"], 1e-9)
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, pearson([]float64{1, 2, 3}, []float64{6, 4, 2}), 1e-9)
	assert.Zero(t, pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Zero(t, pearson([]float64{1}, []float64{2}))
}
