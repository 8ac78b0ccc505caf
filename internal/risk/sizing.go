package risk

import (
	"fmt"

	apperrors "dca-trader/internal/errors"
	"dca-trader/internal/models"
)

// DCALevel describes one planned add-on order in a DCA ladder.
// CumulativeAmount and AverageEntry are running totals over the
// initial order plus levels 1..Level.
type DCALevel struct {
	Level            int     `json:"level"`
	PriceDropPercent float64 `json:"price_drop_percent"`
	EntryPrice       float64 `json:"entry_price"`
	Amount           float64 `json:"amount"`
	CumulativeAmount float64 `json:"cumulative_amount"`
	AverageEntry     float64 `json:"average_entry"`
}

// TradeCalculation is the immutable sizing snapshot derived from a
// signal, bot settings, and account state. Recomputed on every input
// change; never persisted directly.
type TradeCalculation struct {
	Symbol              string      `json:"symbol"`
	Side                models.Side `json:"side"`
	EntryPrice          float64     `json:"entry_price"`
	StopLossPrice       float64     `json:"stop_loss_price,omitempty"`
	TakeProfitPrice     float64     `json:"take_profit_price,omitempty"`
	Leverage            float64     `json:"leverage"`
	PositionSize        float64     `json:"position_size"`
	MarginUsed          float64     `json:"margin_used"`
	MaxLossAmount       float64     `json:"max_loss_amount"`
	ExpectedLossPercent float64     `json:"expected_loss_percent"`
	InitialAmount       float64     `json:"initial_amount"`
	DCALevels           []DCALevel  `json:"dca_levels,omitempty"`
}

// positionSizeFromRisk derives position size backward from the amount
// the account is willing to lose and the percentage of the position
// that would be lost if the stop is hit. Shared by the sizing
// calculator and the risk assessor so the two cannot drift.
func positionSizeFromRisk(maxLossAmount, expectedLossPercent float64) float64 {
	if expectedLossPercent <= 0 {
		return 0
	}
	return maxLossAmount / (expectedLossPercent / 100)
}

// Calculator computes trade sizing and DCA ladders.
type Calculator struct {
	defaultInitialOrderPct float64
	defaultDCASpacingPct   float64
}

// NewCalculator creates a Calculator with the standard defaults of a
// 25% initial order and 2% DCA level spacing.
func NewCalculator() *Calculator {
	return &Calculator{
		defaultInitialOrderPct: 25,
		defaultDCASpacingPct:   2,
	}
}

// ComputeTradeSizing computes the full sizing snapshot for a proposed
// trade. It returns (nil, nil) when there is nothing to compute:
// missing signal, missing settings, or no available balance. A stop
// loss at or beyond the entry price on the wrong side is reported as
// an InvalidStopLossError rather than producing an infinite size.
func (c *Calculator) ComputeTradeSizing(
	signal *models.Signal,
	settings *models.BotSettings,
	availableBalance float64,
	riskPercentage float64,
	leverage float64,
	enableDCA bool,
	dcaLevelCount int,
) (*TradeCalculation, error) {
	if signal == nil || settings == nil || availableBalance <= 0 {
		return nil, nil
	}
	if leverage < 1 {
		return nil, apperrors.NewValidationError(
			"leverage", fmt.Sprintf("%v", leverage), "must be at least 1")
	}
	if riskPercentage <= 0 || riskPercentage > 100 {
		return nil, apperrors.NewValidationError(
			"risk_percentage", fmt.Sprintf("%v", riskPercentage), "must be in (0, 100]")
	}
	if signal.EntryPrice <= 0 {
		return nil, apperrors.NewValidationError(
			"entry_price", fmt.Sprintf("%v", signal.EntryPrice), "must be positive")
	}

	expectedLossPct, err := c.expectedLossPercent(signal, settings)
	if err != nil {
		return nil, err
	}

	maxLossAmount := availableBalance * riskPercentage / 100
	positionSize := positionSizeFromRisk(maxLossAmount, expectedLossPct)
	// Risk sizing may exceed available capital; capital is a hard ceiling.
	if positionSize > availableBalance {
		positionSize = availableBalance
	}

	initialPct := settings.InitialOrderPct
	if initialPct <= 0 {
		initialPct = c.defaultInitialOrderPct
	}
	initialAmount := positionSize * initialPct / 100

	calc := &TradeCalculation{
		Symbol:              signal.Symbol,
		Side:                signal.SignalType,
		EntryPrice:          signal.EntryPrice,
		StopLossPrice:       signal.StopLossPrice,
		TakeProfitPrice:     signal.TakeProfitPrice,
		Leverage:            leverage,
		PositionSize:        positionSize,
		MarginUsed:          positionSize / leverage,
		MaxLossAmount:       maxLossAmount,
		ExpectedLossPercent: expectedLossPct,
		InitialAmount:       initialAmount,
	}

	if enableDCA && dcaLevelCount > 0 {
		calc.DCALevels = c.buildDCALadder(signal, settings, positionSize, initialAmount, dcaLevelCount)
	}
	return calc, nil
}

// expectedLossPercent returns the percentage of the position lost if
// the stop is hit. Sign-aware by side: a long loses when price falls,
// a short loses when price rises.
func (c *Calculator) expectedLossPercent(signal *models.Signal, settings *models.BotSettings) (float64, error) {
	if !signal.HasStopLoss() {
		if settings.DefaultStopLossPct <= 0 {
			return 0, apperrors.NewInvalidStopLossError(
				signal.Symbol, string(signal.SignalType), signal.EntryPrice, 0,
				"no stop loss on signal and no default configured")
		}
		return settings.DefaultStopLossPct, nil
	}

	var lossPct float64
	if signal.SignalType.IsLong() {
		lossPct = (signal.EntryPrice - signal.StopLossPrice) / signal.EntryPrice * 100
	} else {
		lossPct = (signal.StopLossPrice - signal.EntryPrice) / signal.EntryPrice * 100
	}
	if lossPct <= 0 {
		return 0, apperrors.NewInvalidStopLossError(
			signal.Symbol, string(signal.SignalType), signal.EntryPrice, signal.StopLossPrice,
			"stop loss is at or beyond entry on the wrong side")
	}
	return lossPct, nil
}

// buildDCALadder splits remaining capital evenly across the levels and
// tracks the running weighted average entry as each fill accumulates.
// Level offsets come from the settings' custom offsets when one is
// given per level, otherwise each level i sits i*spacing percent from
// entry.
func (c *Calculator) buildDCALadder(
	signal *models.Signal,
	settings *models.BotSettings,
	positionSize, initialAmount float64,
	levelCount int,
) []DCALevel {
	spacing := settings.DCASpacingPct
	if spacing <= 0 {
		spacing = c.defaultDCASpacingPct
	}

	remaining := positionSize - initialAmount
	perLevel := remaining / float64(levelCount)

	cumInvestment := initialAmount
	cumQuantity := initialAmount / signal.EntryPrice

	levels := make([]DCALevel, 0, levelCount)
	for i := 1; i <= levelCount; i++ {
		drop := float64(i) * spacing
		if len(settings.DCACustomOffsets) == levelCount {
			drop = settings.DCACustomOffsets[i-1]
		}

		var price float64
		if signal.SignalType.IsLong() {
			price = signal.EntryPrice * (1 - drop/100)
		} else {
			price = signal.EntryPrice * (1 + drop/100)
		}

		cumInvestment += perLevel
		cumQuantity += perLevel / price

		levels = append(levels, DCALevel{
			Level:            i,
			PriceDropPercent: drop,
			EntryPrice:       price,
			Amount:           perLevel,
			CumulativeAmount: cumInvestment,
			AverageEntry:     cumInvestment / cumQuantity,
		})
	}
	return levels
}
