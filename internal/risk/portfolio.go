package risk

import (
	"math"

	"dca-trader/internal/models"
)

// RiskLevel classifies overall portfolio risk.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// PortfolioRisk is a read-time aggregate over the open trades.
// Recomputed on demand; never persisted.
type PortfolioRisk struct {
	TotalExposure        float64            `json:"total_exposure"`
	DiversificationScore float64            `json:"diversification_score"`
	CorrelationMatrix    map[string]float64 `json:"correlation_matrix"`
	CurrentDrawdown      float64            `json:"current_drawdown"`
	RiskUtilization      float64            `json:"risk_utilization"`
	OverallRiskLevel     RiskLevel          `json:"overall_risk_level"`
}

// ReturnsProvider supplies recent percentage returns for a symbol,
// newest last. Implemented by the market data stats tracker.
type ReturnsProvider interface {
	Returns(symbol string, n int) []float64
}

// CorrelationEstimator computes pairwise return correlations between
// portfolio symbols. Symbols without enough return history are left
// out of the matrix.
type CorrelationEstimator struct {
	provider ReturnsProvider
	window   int
}

// NewCorrelationEstimator creates an estimator reading up to window
// returns per symbol from the provider.
func NewCorrelationEstimator(provider ReturnsProvider, window int) *CorrelationEstimator {
	if window <= 0 {
		window = 50
	}
	return &CorrelationEstimator{provider: provider, window: window}
}

// Matrix returns, for each symbol, its mean absolute Pearson
// correlation against the other symbols in the set.
func (e *CorrelationEstimator) Matrix(symbols []string) map[string]float64 {
	matrix := make(map[string]float64)
	if e == nil || e.provider == nil {
		return matrix
	}

	returns := make(map[string][]float64, len(symbols))
	for _, s := range symbols {
		r := e.provider.Returns(s, e.window)
		if len(r) >= 2 {
			returns[s] = r
		}
	}

	for _, s := range symbols {
		rs, ok := returns[s]
		if !ok {
			continue
		}
		var sum float64
		var count int
		for _, other := range symbols {
			if other == s {
				continue
			}
			ro, ok := returns[other]
			if !ok {
				continue
			}
			sum += math.Abs(pearson(rs, ro))
			count++
		}
		if count > 0 {
			matrix[s] = sum / float64(count)
		}
	}
	return matrix
}

// pearson computes the Pearson correlation coefficient over the
// overlapping tail of the two series.
func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// PortfolioAnalyzer aggregates risk across open trades.
type PortfolioAnalyzer struct {
	correlations *CorrelationEstimator
}

// NewPortfolioAnalyzer creates an analyzer. The estimator may be nil,
// in which case the correlation matrix is left empty.
func NewPortfolioAnalyzer(estimator *CorrelationEstimator) *PortfolioAnalyzer {
	return &PortfolioAnalyzer{correlations: estimator}
}

// AnalyzePortfolioRisk computes the aggregate risk view over the
// currently open trades.
func (p *PortfolioAnalyzer) AnalyzePortfolioRisk(trades []models.ActiveTrade, params RiskParameters) PortfolioRisk {
	risk := PortfolioRisk{
		CorrelationMatrix: map[string]float64{},
	}

	var totalSize, totalPnL float64
	bases := make(map[string]struct{})
	symbols := make([]string, 0, len(trades))
	for _, t := range trades {
		totalSize += t.PositionSize
		totalPnL += t.UnrealizedPnL
		bases[models.BaseAsset(t.Symbol)] = struct{}{}
		symbols = append(symbols, t.Symbol)
	}

	if params.AccountBalance > 0 {
		risk.TotalExposure = totalSize / params.AccountBalance * 100
	}

	// A flat book has no concentration risk.
	if len(trades) == 0 {
		risk.DiversificationScore = 100
	} else {
		risk.DiversificationScore = math.Min(100, float64(len(bases))/float64(len(trades))*100)
	}

	// Only unrealized losses count toward drawdown.
	if params.AccountBalance > 0 {
		risk.CurrentDrawdown = math.Abs(math.Min(0, totalPnL) / params.AccountBalance * 100)
	}

	if params.MaxConcurrentTrades > 0 {
		risk.RiskUtilization = float64(len(trades)) / float64(params.MaxConcurrentTrades) * 100
	}

	if p.correlations != nil {
		risk.CorrelationMatrix = p.correlations.Matrix(symbols)
	}

	risk.OverallRiskLevel = classifyRiskLevel(risk.CurrentDrawdown, risk.TotalExposure, params.DrawdownLimit)
	return risk
}

// CriticalExposurePct is the total exposure, as a percentage of the
// account balance, above which the portfolio is critical regardless of
// drawdown.
const CriticalExposurePct = 80

// classifyRiskLevel tiers the portfolio high to low; the first
// matching tier wins. Hitting the drawdown limit exactly is already
// critical.
func classifyRiskLevel(drawdown, exposure, drawdownLimit float64) RiskLevel {
	switch {
	case drawdown >= drawdownLimit || exposure > CriticalExposurePct:
		return RiskLevelCritical
	case drawdown > 0.7*drawdownLimit || exposure > 60:
		return RiskLevelHigh
	case drawdown > 0.4*drawdownLimit || exposure > 40:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
