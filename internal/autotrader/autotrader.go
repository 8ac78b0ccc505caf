package autotrader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "dca-trader/internal/errors"
	"dca-trader/internal/execution"
	"dca-trader/internal/marketdata"
	"dca-trader/internal/models"
	"dca-trader/internal/notify"
	"dca-trader/internal/risk"
	"dca-trader/internal/store"
)

// Result reports how a signal was handled.
type Result struct {
	Executed    bool
	BlockReason string
	Filter      FilterResult
	Sizing      *risk.TradeCalculation
	Assessment  *risk.TradeRiskAssessment
	Portfolio   *risk.PortfolioRisk
	Execution   *execution.ExecutionResult
}

// AutoTrader runs the full signal pipeline: filter, size, assess,
// check portfolio risk, then execute.
type AutoTrader struct {
	settings   *models.BotSettings
	params     *risk.ParameterStore
	calculator *risk.Calculator
	assessor   *risk.Assessor
	analyzer   *risk.PortfolioAnalyzer
	executor   *execution.Executor
	trades     store.TradeStore
	stats      *marketdata.StatsTracker
	notifier   notify.Notifier
	logger     zerolog.Logger
}

// New creates an AutoTrader. The stats tracker and notifier may be
// nil; risk assessment then falls back to market data defaults and
// notifications are dropped.
func New(
	settings *models.BotSettings,
	params *risk.ParameterStore,
	calculator *risk.Calculator,
	assessor *risk.Assessor,
	analyzer *risk.PortfolioAnalyzer,
	executor *execution.Executor,
	trades store.TradeStore,
	stats *marketdata.StatsTracker,
	notifier notify.Notifier,
	logger zerolog.Logger,
) *AutoTrader {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &AutoTrader{
		settings:   settings,
		params:     params,
		calculator: calculator,
		assessor:   assessor,
		analyzer:   analyzer,
		executor:   executor,
		trades:     trades,
		stats:      stats,
		notifier:   notifier,
		logger:     logger.With().Str("component", "autotrader").Logger(),
	}
}

// HandleSignal runs one signal through the pipeline. A blocked signal
// is not an error; the block reason is reported in the result.
func (a *AutoTrader) HandleSignal(ctx context.Context, signal *models.Signal) (*Result, error) {
	if signal == nil {
		return nil, fmt.Errorf("nil signal")
	}
	params := a.params.Get()
	logger := a.logger.With().Str("signal_id", signal.ID).Str("symbol", signal.Symbol).Logger()

	openTrades, err := a.trades.ListOpenTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing open trades: %w", err)
	}
	lastTrade, err := a.trades.LastTradeTime(ctx, signal.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching last trade time: %w", err)
	}

	result := &Result{}

	// Stage 1: filter.
	filter := NewSignalFilter(a.settings)
	result.Filter = filter.Check(signal, FilterState{
		OpenTrades:    len(openTrades),
		MaxConcurrent: params.MaxConcurrentTrades,
		LastTradeAt:   lastTrade,
	})
	if !result.Filter.ShouldExecute {
		result.BlockReason = result.Filter.BlockReason
		logger.Info().Str("reason", result.BlockReason).Msg("Signal blocked by filter")
		return result, nil
	}

	// Stage 2: sizing.
	sizing, err := a.calculator.ComputeTradeSizing(
		signal, a.settings,
		params.AccountBalance,
		a.settings.RiskPercentage,
		a.settings.Leverage,
		a.settings.EnableDCA,
		a.settings.DCALevelCount,
	)
	if err != nil {
		return nil, fmt.Errorf("computing trade sizing: %w", err)
	}
	if sizing == nil {
		result.BlockReason = "nothing to compute"
		return result, nil
	}
	result.Sizing = sizing

	// Stage 3: per-trade risk assessment.
	var market *models.MarketData
	if a.stats != nil {
		market = a.stats.Snapshot(signal.Symbol)
	}
	assessment := a.assessor.AssessTradeRisk(
		signal.Symbol, signal.EntryPrice, a.effectiveStopPrice(signal, sizing), sizing.TakeProfitPrice,
		market, params,
	)
	result.Assessment = &assessment

	switch assessment.Recommendation {
	case risk.RecommendationReject:
		result.BlockReason = fmt.Sprintf("risk assessment rejected (score %.0f)", assessment.RiskScore)
		logger.Warn().Float64("risk_score", assessment.RiskScore).Msg("Signal rejected by risk assessment")
		a.notifyRiskBlock(ctx, signal, assessment)
		return result, nil
	case risk.RecommendationReduceSize:
		// Halve the position and rebuild the ladder proportionally.
		sizing = a.reduceSizing(sizing)
		result.Sizing = sizing
		logger.Info().Float64("risk_score", assessment.RiskScore).Msg("Position size reduced by risk assessment")
	}

	// Stage 4: portfolio risk.
	active := make([]models.ActiveTrade, 0, len(openTrades))
	for _, trade := range openTrades {
		active = append(active, trade.ActiveTrade())
	}
	portfolio := a.analyzer.AnalyzePortfolioRisk(active, params)
	result.Portfolio = &portfolio
	if portfolio.OverallRiskLevel == risk.RiskLevelCritical {
		violation := apperrors.NewRiskError(
			"exposure", portfolio.TotalExposure, risk.CriticalExposurePct, "portfolio risk critical")
		if portfolio.CurrentDrawdown >= params.DrawdownLimit {
			violation = apperrors.NewRiskError(
				"drawdown", portfolio.CurrentDrawdown, params.DrawdownLimit, "portfolio risk critical")
		}
		result.BlockReason = violation.Error()
		logger.Warn().
			Float64("drawdown", portfolio.CurrentDrawdown).
			Float64("exposure", portfolio.TotalExposure).
			Msg("Signal blocked by portfolio risk")
		a.notifier.Send(ctx, notify.Notification{
			Type:      notify.NotificationRisk,
			Title:     fmt.Sprintf("Signal %s blocked", signal.Symbol),
			Message:   violation.Error(),
			Timestamp: time.Now(),
		})
		return result, nil
	}

	// Stage 5: execute.
	payload := execution.BuildExecutionPayload(sizing, signal, a.settings)
	exec, err := a.executor.Execute(ctx, payload)
	if err != nil {
		a.notifier.Send(ctx, notify.Notification{
			Type:    notify.NotificationError,
			Title:   "Execution failed",
			Message: err.Error(),
		})
		return result, fmt.Errorf("executing payload: %w", err)
	}
	result.Executed = true
	result.Execution = exec

	a.notifier.Send(ctx, notify.Notification{
		Type:  notify.NotificationTrade,
		Title: fmt.Sprintf("%s %s executed", signal.SignalType, signal.Symbol),
		Data: map[string]interface{}{
			"position_usd": sizing.PositionSize,
			"dca_levels":   len(sizing.DCALevels),
			"trade_id":     exec.TradeID,
		},
		Timestamp: time.Now(),
	})
	logger.Info().Str("trade_id", exec.TradeID).Msg("Signal executed")
	return result, nil
}

// effectiveStopPrice returns the stop price the risk assessor should
// see. A signal without an explicit stop was sized against the bot's
// default loss percentage, so the same percentage is turned into a
// price on the correct side of entry.
func (a *AutoTrader) effectiveStopPrice(signal *models.Signal, sizing *risk.TradeCalculation) float64 {
	if sizing.StopLossPrice > 0 {
		return sizing.StopLossPrice
	}
	pct := a.settings.DefaultStopLossPct / 100
	if signal.SignalType.IsLong() {
		return signal.EntryPrice * (1 - pct)
	}
	return signal.EntryPrice * (1 + pct)
}

// reduceSizing halves the position while keeping the ladder structure
// and proportions intact.
func (a *AutoTrader) reduceSizing(sizing *risk.TradeCalculation) *risk.TradeCalculation {
	reduced := *sizing
	reduced.PositionSize = sizing.PositionSize / 2
	reduced.MarginUsed = sizing.MarginUsed / 2
	reduced.InitialAmount = sizing.InitialAmount / 2

	if len(sizing.DCALevels) > 0 {
		levels := make([]risk.DCALevel, len(sizing.DCALevels))
		for i, lvl := range sizing.DCALevels {
			lvl.Amount /= 2
			lvl.CumulativeAmount /= 2
			levels[i] = lvl
		}
		reduced.DCALevels = levels
	}
	return &reduced
}

func (a *AutoTrader) notifyRiskBlock(ctx context.Context, signal *models.Signal, assessment risk.TradeRiskAssessment) {
	a.notifier.Send(ctx, notify.Notification{
		Type:    notify.NotificationRisk,
		Title:   fmt.Sprintf("Signal %s rejected", signal.Symbol),
		Message: fmt.Sprintf("risk score %.0f", assessment.RiskScore),
		Data: map[string]interface{}{
			"recommendation": string(assessment.Recommendation),
		},
		Timestamp: time.Now(),
	})
}
