package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-trader/internal/models"
)

func testRiskParams() RiskParameters {
	return RiskParameters{
		AccountBalance:      10000,
		MaxRiskPercentage:   2,
		MaxConcurrentTrades: 5,
		CorrelationLimit:    0.7,
		DrawdownLimit:       15,
		VolatilityThreshold: 0.05,
	}
}

func TestAssessTradeRisk_Approve(t *testing.T) {
	assessor := NewAssessor()
	market := &models.MarketData{Volatility: 0.02, Volume24h: 5000000}

	// 5% stop, 10% target gives a 2.0 risk/reward.
	result := assessor.AssessTradeRisk("BTC/USDT", 50000, 47500, 55000, market, testRiskParams())

	assert.InDelta(t, 2.0, result.RiskRewardRatio, 1e-9)
	assert.InDelta(t, 0, result.RiskScore, 1e-9)
	assert.Equal(t, RecommendationApprove, result.Recommendation)
	assert.EqualValues(t, 20, result.VolatilityRisk)
	assert.EqualValues(t, 10, result.LiquidityRisk)
	assert.EqualValues(t, 25, result.CorrelationRisk)

	// Same backward sizing as the calculator: 200 max loss over a
	// 5% stop distance.
	assert.InDelta(t, 4000, result.MaxPositionSize, 1e-9)
}

func TestAssessTradeRisk_RejectAtScoreSeventy(t *testing.T) {
	assessor := NewAssessor()
	params := testRiskParams()

	// Poor R/R (+30), elevated volatility (+20), but good liquidity:
	// score 50 reduces size. Adding high volatility (+40) with poor
	// R/R reaches 70 exactly and must reject.
	market := &models.MarketData{Volatility: 0.11, Volume24h: 5000000}
	result := assessor.AssessTradeRisk("BTC/USDT", 50000, 47500, 51000, market, params)

	assert.InDelta(t, 70, result.RiskScore, 1e-9)
	assert.Equal(t, RecommendationReject, result.Recommendation)
}

func TestAssessTradeRisk_ReduceSize(t *testing.T) {
	assessor := NewAssessor()
	market := &models.MarketData{Volatility: 0.07, Volume24h: 500000}

	// Acceptable R/R (+10), elevated volatility (+20), moderate
	// liquidity (+15): score 45.
	result := assessor.AssessTradeRisk("ETH/USDT", 3000, 2850, 3240, market, testRiskParams())

	assert.InDelta(t, 45, result.RiskScore, 1e-9)
	assert.Equal(t, RecommendationReduceSize, result.Recommendation)
	assert.EqualValues(t, 50, result.VolatilityRisk)
	assert.EqualValues(t, 40, result.LiquidityRisk)
}

func TestAssessTradeRisk_DefaultsWhenMarketDataMissing(t *testing.T) {
	assessor := NewAssessor()

	result := assessor.AssessTradeRisk("BTC/USDT", 50000, 47500, 55000, nil, testRiskParams())

	// Defaults: 3% volatility is below the 5% threshold, 1M volume
	// is in the top liquidity band.
	assert.EqualValues(t, 20, result.VolatilityRisk)
	assert.EqualValues(t, 10, result.LiquidityRisk)
	assert.Equal(t, RecommendationApprove, result.Recommendation)
}

func TestAssessTradeRisk_ReasoningOrder(t *testing.T) {
	assessor := NewAssessor()
	market := &models.MarketData{Volatility: 0.02, Volume24h: 5000000}

	result := assessor.AssessTradeRisk("BTC/USDT", 50000, 47500, 55000, market, testRiskParams())
	require.Len(t, result.Reasoning, 4)
	assert.Contains(t, result.Reasoning[0], "risk/reward")
	assert.Contains(t, result.Reasoning[1], "volatility")
	assert.Contains(t, result.Reasoning[2], "liquidity")
	assert.Contains(t, result.Reasoning[3], "approved")
}

func TestAssessTradeRisk_Deterministic(t *testing.T) {
	assessor := NewAssessor()
	market := &models.MarketData{Volatility: 0.04, Volume24h: 750000}

	first := assessor.AssessTradeRisk("SOL/USDT", 150, 142, 168, market, testRiskParams())
	second := assessor.AssessTradeRisk("SOL/USDT", 150, 142, 168, market, testRiskParams())
	assert.Equal(t, first, second)
}

func TestAssessTradeRisk_PluggableCorrelation(t *testing.T) {
	assessor := NewAssessor(WithCorrelationFunc(func(symbol string) float64 {
		return 60
	}))

	result := assessor.AssessTradeRisk("BTC/USDT", 50000, 47500, 55000, nil, testRiskParams())
	assert.EqualValues(t, 60, result.CorrelationRisk)
}

func TestAssessTradeRisk_ZeroStopDistance(t *testing.T) {
	assessor := NewAssessor()

	// Stop at entry: no usable stop distance, worst R/R tier, and no
	// finite max size is produced.
	result := assessor.AssessTradeRisk("BTC/USDT", 50000, 50000, 55000, nil, testRiskParams())
	assert.Zero(t, result.RiskRewardRatio)
	assert.Zero(t, result.MaxPositionSize)
}
