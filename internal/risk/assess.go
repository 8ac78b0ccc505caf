package risk

import (
	"fmt"
	"math"

	"dca-trader/internal/models"
)

// Recommendation is the coarse verdict of a trade risk assessment.
type Recommendation string

const (
	RecommendationApprove    Recommendation = "APPROVE"
	RecommendationReduceSize Recommendation = "REDUCE_SIZE"
	RecommendationReject     Recommendation = "REJECT"
)

// TradeRiskAssessment is the per-trade risk verdict. Consumed
// immediately by the caller to gate execution; never persisted.
type TradeRiskAssessment struct {
	Symbol            string         `json:"symbol"`
	RiskScore         float64        `json:"risk_score"`
	MaxPositionSize   float64        `json:"max_position_size"`
	SuggestedStopLoss float64        `json:"suggested_stop_loss"`
	RiskRewardRatio   float64        `json:"risk_reward_ratio"`
	CorrelationRisk   float64        `json:"correlation_risk"`
	VolatilityRisk    float64        `json:"volatility_risk"`
	LiquidityRisk     float64        `json:"liquidity_risk"`
	Recommendation    Recommendation `json:"recommendation"`
	Reasoning         []string       `json:"reasoning"`
}

// CorrelationFunc estimates the correlation risk contribution (0-100)
// of adding a symbol to the current portfolio. A production estimator
// is wired at composition time; the default is a flat placeholder.
type CorrelationFunc func(symbol string) float64

// defaultCorrelationRisk is the flat estimate used when no estimator
// is wired.
func defaultCorrelationRisk(string) float64 { return 25 }

// Assessor scores proposed trades against market conditions and risk
// parameters. It is deterministic: identical inputs yield identical
// output.
type Assessor struct {
	correlation CorrelationFunc
}

// AssessorOption configures an Assessor.
type AssessorOption func(*Assessor)

// WithCorrelationFunc replaces the placeholder correlation estimator.
func WithCorrelationFunc(fn CorrelationFunc) AssessorOption {
	return func(a *Assessor) {
		if fn != nil {
			a.correlation = fn
		}
	}
}

// NewAssessor creates an Assessor.
func NewAssessor(opts ...AssessorOption) *Assessor {
	a := &Assessor{correlation: defaultCorrelationRisk}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

const (
	defaultVolatility = 0.03
	defaultVolume24h  = 1000000
)

// AssessTradeRisk scores the proposed trade. Reasoning strings are
// appended in evaluation order: risk/reward, volatility, liquidity,
// then the final verdict. Callers display them verbatim.
func (a *Assessor) AssessTradeRisk(
	symbol string,
	entryPrice, stopLossPrice, takeProfitPrice float64,
	market *models.MarketData,
	params RiskParameters,
) TradeRiskAssessment {
	assessment := TradeRiskAssessment{
		Symbol:            symbol,
		SuggestedStopLoss: stopLossPrice,
		CorrelationRisk:   a.correlation(symbol),
	}
	var score float64
	var reasoning []string

	// Risk/reward ratio.
	stopDistance := math.Abs(entryPrice - stopLossPrice)
	rewardDistance := math.Abs(takeProfitPrice - entryPrice)
	var rr float64
	if stopDistance > 0 {
		rr = rewardDistance / stopDistance
	}
	assessment.RiskRewardRatio = rr
	switch {
	case rr >= 2.0:
		reasoning = append(reasoning, fmt.Sprintf("Good risk/reward ratio: %.2f", rr))
	case rr >= 1.5:
		score += 10
		reasoning = append(reasoning, fmt.Sprintf("Acceptable risk/reward ratio: %.2f", rr))
	default:
		score += 30
		reasoning = append(reasoning, fmt.Sprintf("Poor risk/reward ratio: %.2f", rr))
	}

	// Volatility.
	volatility := defaultVolatility
	if market != nil && market.Volatility > 0 {
		volatility = market.Volatility
	}
	switch {
	case volatility > 2*params.VolatilityThreshold:
		score += 40
		assessment.VolatilityRisk = 80
		reasoning = append(reasoning, fmt.Sprintf("High volatility: %.1f%%", volatility*100))
	case volatility > params.VolatilityThreshold:
		score += 20
		assessment.VolatilityRisk = 50
		reasoning = append(reasoning, fmt.Sprintf("Elevated volatility: %.1f%%", volatility*100))
	default:
		assessment.VolatilityRisk = 20
		reasoning = append(reasoning, fmt.Sprintf("Normal volatility: %.1f%%", volatility*100))
	}

	// Liquidity.
	volume := float64(defaultVolume24h)
	if market != nil && market.Volume24h > 0 {
		volume = market.Volume24h
	}
	switch {
	case volume < 100000:
		score += 35
		assessment.LiquidityRisk = 70
		reasoning = append(reasoning, fmt.Sprintf("Low liquidity: $%.0f 24h volume", volume))
	case volume < 1000000:
		score += 15
		assessment.LiquidityRisk = 40
		reasoning = append(reasoning, fmt.Sprintf("Moderate liquidity: $%.0f 24h volume", volume))
	default:
		assessment.LiquidityRisk = 10
		reasoning = append(reasoning, fmt.Sprintf("Good liquidity: $%.0f 24h volume", volume))
	}

	// Max position size, derived from the shared risk sizing formula.
	maxLoss := params.AccountBalance * params.MaxRiskPercentage / 100
	if entryPrice > 0 && stopDistance > 0 {
		assessment.MaxPositionSize = positionSizeFromRisk(maxLoss, stopDistance/entryPrice*100)
	}

	assessment.RiskScore = score
	switch {
	case score >= 70:
		assessment.Recommendation = RecommendationReject
		reasoning = append(reasoning, "Risk too high, trade rejected")
	case score >= 40:
		assessment.Recommendation = RecommendationReduceSize
		reasoning = append(reasoning, "Elevated risk, reduce position size")
	default:
		assessment.Recommendation = RecommendationApprove
		reasoning = append(reasoning, "Risk acceptable, trade approved")
	}
	assessment.Reasoning = reasoning
	return assessment
}
