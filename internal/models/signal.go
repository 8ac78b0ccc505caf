package models

import "time"

// Signal is a trade proposal from an external signal source, usually
// ingested as JSON. StopLossPrice and TakeProfitPrice may be zero, in
// which case bot-setting defaults apply.
type Signal struct {
	ID              string    `json:"id,omitempty"`
	Symbol          string    `json:"symbol"`
	SignalType      Side      `json:"signal_type"`
	EntryPrice      float64   `json:"entry_price"`
	StopLossPrice   float64   `json:"stop_loss_price,omitempty"`
	TakeProfitPrice float64   `json:"take_profit_price,omitempty"`
	Confidence      float64   `json:"confidence,omitempty"` // 0-100
	StrategyID      string    `json:"strategy_id,omitempty"`
	ReceivedAt      time.Time `json:"received_at,omitempty"`
}

// HasStopLoss reports whether the signal carries an explicit stop-loss price.
func (s *Signal) HasStopLoss() bool {
	return s.StopLossPrice > 0
}

// HasTakeProfit reports whether the signal carries an explicit take-profit price.
func (s *Signal) HasTakeProfit() bool {
	return s.TakeProfitPrice > 0
}

// BotSettings holds per-bot strategy configuration supplied by the settings
// store. Treated as read-only input by the calculation engine.
type BotSettings struct {
	Enabled            bool
	Exchange           ExchangeName
	MarketType         MarketType
	Leverage           float64 // >= 1
	RiskPercentage     float64 // % of balance risked per trade
	DefaultStopLossPct float64 // fallback when signal has no stop, e.g. 5.0
	TakeProfitPct      float64 // fallback when signal has no target
	InitialOrderPct    float64 // % of position placed at entry, default 25
	EnableDCA          bool
	DCALevelCount      int
	DCASpacingPct      float64   // price drop per level, default 2.0
	DCACustomOffsets   []float64 // optional explicit price-drop %, overrides spacing
	AllowedDirections  []Side    // empty = both
	MinConfidence      float64   // 0-100
	CooldownMinutes    int
	TrailingStopPct    float64 // 0 = disabled
	PartialTakeProfits []PartialTakeProfit
	Testnet            bool
}

// PartialTakeProfit closes a fraction of the position at a profit percentage.
type PartialTakeProfit struct {
	ProfitPct float64
	ClosePct  float64
}

// DefaultBotSettings returns settings suitable for a conservative futures bot.
func DefaultBotSettings() BotSettings {
	return BotSettings{
		Enabled:            true,
		Exchange:           ExchangeBinance,
		MarketType:         MarketFutures,
		Leverage:           1,
		RiskPercentage:     2.0,
		DefaultStopLossPct: 5.0,
		TakeProfitPct:      10.0,
		InitialOrderPct:    25.0,
		EnableDCA:          true,
		DCALevelCount:      3,
		DCASpacingPct:      2.0,
		MinConfidence:      60.0,
	}
}

// AllowsDirection reports whether the settings permit trading in the given
// direction. An empty allow-list permits both directions.
func (b *BotSettings) AllowsDirection(side Side) bool {
	if len(b.AllowedDirections) == 0 {
		return true
	}
	for _, d := range b.AllowedDirections {
		if d == side {
			return true
		}
	}
	return false
}
