// Package execution builds the canonical order payload handed to
// exchange adapters, and converts it to the flat legacy format older
// call sites still consume.
package execution

import (
	"github.com/google/uuid"

	"dca-trader/internal/models"
	"dca-trader/internal/risk"
)

// CapitalAllocation describes how the position's capital is split
// between the initial order and the DCA budget.
type CapitalAllocation struct {
	TotalUSD        float64 `json:"total_usd"`
	InitialOrderPct float64 `json:"initial_order_pct"`
	DCABudgetPct    float64 `json:"dca_budget_pct"`
}

// DCAPlan carries the ladder handed to the exchange adapter.
type DCAPlan struct {
	Enabled bool            `json:"enabled"`
	Levels  []risk.DCALevel `json:"levels,omitempty"`
}

// RiskParams carries the protective order configuration.
type RiskParams struct {
	StopLossPrice      float64                    `json:"stop_loss_price,omitempty"`
	TakeProfitPrice    float64                    `json:"take_profit_price,omitempty"`
	TrailingStopPct    float64                    `json:"trailing_stop_pct,omitempty"`
	PartialTakeProfits []models.PartialTakeProfit `json:"partial_take_profits,omitempty"`
}

// TradeMetadata identifies the trade's origin and execution mode.
type TradeMetadata struct {
	StrategyID     string `json:"strategy_id,omitempty"`
	SignalID       string `json:"signal_id,omitempty"`
	Testnet        bool   `json:"testnet"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ExecutionPayload is the canonical, exchange-agnostic order
// description. The adapter that receives it treats it as read-only.
type ExecutionPayload struct {
	Exchange   models.ExchangeName `json:"exchange"`
	MarketType models.MarketType   `json:"market_type"`
	Symbol     string              `json:"symbol"`
	Side       models.Side         `json:"side"`
	Leverage   float64             `json:"leverage"`
	Capital    CapitalAllocation   `json:"capital"`
	DCA        DCAPlan             `json:"dca"`
	Risk       RiskParams          `json:"risk"`
	Metadata   TradeMetadata       `json:"metadata"`
}

// BuildExecutionPayload normalizes a sizing snapshot into the
// canonical payload. The idempotency key is generated here so retried
// submissions of the same payload stay deduplicable downstream.
func BuildExecutionPayload(calc *risk.TradeCalculation, signal *models.Signal, settings *models.BotSettings) *ExecutionPayload {
	if calc == nil || signal == nil || settings == nil {
		return nil
	}

	initialPct := settings.InitialOrderPct
	if calc.PositionSize > 0 {
		initialPct = calc.InitialAmount / calc.PositionSize * 100
	}

	takeProfit := signal.TakeProfitPrice
	if takeProfit == 0 && settings.TakeProfitPct > 0 {
		if signal.SignalType.IsLong() {
			takeProfit = signal.EntryPrice * (1 + settings.TakeProfitPct/100)
		} else {
			takeProfit = signal.EntryPrice * (1 - settings.TakeProfitPct/100)
		}
	}

	return &ExecutionPayload{
		Exchange:   settings.Exchange,
		MarketType: settings.MarketType,
		Symbol:     calc.Symbol,
		Side:       calc.Side,
		Leverage:   calc.Leverage,
		Capital: CapitalAllocation{
			TotalUSD:        calc.PositionSize,
			InitialOrderPct: initialPct,
			DCABudgetPct:    100 - initialPct,
		},
		DCA: DCAPlan{
			Enabled: len(calc.DCALevels) > 0,
			Levels:  calc.DCALevels,
		},
		Risk: RiskParams{
			StopLossPrice:      calc.StopLossPrice,
			TakeProfitPrice:    takeProfit,
			TrailingStopPct:    settings.TrailingStopPct,
			PartialTakeProfits: settings.PartialTakeProfits,
		},
		Metadata: TradeMetadata{
			StrategyID:     signal.StrategyID,
			SignalID:       signal.ID,
			Testnet:        settings.Testnet,
			IdempotencyKey: uuid.NewString(),
		},
	}
}

// LegacyPayload is the flat format older call sites consume. It has
// no slot for trailing stops, partial take profits, or metadata;
// those fields are dropped by the conversion. An EntryPrice of 0
// means "unresolved, fill from live market price".
type LegacyPayload struct {
	Exchange        string    `json:"exchange"`
	MarketType      string    `json:"market_type"`
	Symbol          string    `json:"symbol"`
	Side            string    `json:"side"`
	Leverage        float64   `json:"leverage"`
	EntryPrice      float64   `json:"entry_price"`
	AmountUSD       float64   `json:"amount_usd"`
	InitialAmount   float64   `json:"initial_amount"`
	StopLossPrice   float64   `json:"stop_loss_price,omitempty"`
	TakeProfitPrice float64   `json:"take_profit_price,omitempty"`
	DCAEnabled      bool      `json:"dca_enabled"`
	DCALevelPrices  []float64 `json:"dca_level_prices,omitempty"`
	DCALevelAmounts []float64 `json:"dca_level_amounts,omitempty"`
}

// ToLegacyFormat flattens the payload. InitialAmount is recomputed
// from the capital allocation with the same formula the sizing
// calculator uses, keeping the two representations consistent.
func ToLegacyFormat(p *ExecutionPayload) *LegacyPayload {
	if p == nil {
		return nil
	}

	legacy := &LegacyPayload{
		Exchange:        string(p.Exchange),
		MarketType:      string(p.MarketType),
		Symbol:          p.Symbol,
		Side:            string(p.Side),
		Leverage:        p.Leverage,
		AmountUSD:       p.Capital.TotalUSD,
		InitialAmount:   p.Capital.TotalUSD * p.Capital.InitialOrderPct / 100,
		StopLossPrice:   p.Risk.StopLossPrice,
		TakeProfitPrice: p.Risk.TakeProfitPrice,
		DCAEnabled:      p.DCA.Enabled,
	}

	if len(p.DCA.Levels) > 0 {
		legacy.EntryPrice = p.DCA.Levels[0].EntryPrice
		legacy.DCALevelPrices = make([]float64, len(p.DCA.Levels))
		legacy.DCALevelAmounts = make([]float64, len(p.DCA.Levels))
		for i, lvl := range p.DCA.Levels {
			legacy.DCALevelPrices[i] = lvl.EntryPrice
			legacy.DCALevelAmounts[i] = lvl.Amount
		}
	}
	return legacy
}
