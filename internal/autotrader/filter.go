// Package autotrader executes incoming signals automatically after
// filtering them against bot settings and portfolio state.
package autotrader

import (
	"fmt"
	"time"

	"dca-trader/internal/models"
)

// FilterState is the portfolio context a signal is checked against.
type FilterState struct {
	OpenTrades    int
	MaxConcurrent int
	LastTradeAt   time.Time
}

// FilterResult contains the result of a signal filter pass.
type FilterResult struct {
	ShouldExecute bool
	BlockReason   string
	ChecksPassed  []string
	ChecksFailed  []string
}

// SignalFilter decides whether a signal should be auto-executed. The
// checks run in a fixed order and the first failure blocks the
// signal.
type SignalFilter struct {
	settings *models.BotSettings
}

// NewSignalFilter creates a filter over the given bot settings.
func NewSignalFilter(settings *models.BotSettings) *SignalFilter {
	return &SignalFilter{settings: settings}
}

// Check determines whether the signal should be executed.
func (f *SignalFilter) Check(signal *models.Signal, state FilterState) FilterResult {
	result := FilterResult{
		ShouldExecute: true,
		ChecksPassed:  []string{},
		ChecksFailed:  []string{},
	}

	if f.settings == nil || signal == nil {
		result.ShouldExecute = false
		result.BlockReason = "bot settings or signal missing"
		result.ChecksFailed = append(result.ChecksFailed, "inputs")
		return result
	}

	// Check 1: Bot enabled
	if !f.settings.Enabled {
		return result.fail("bot_enabled", "bot is disabled")
	}
	result.pass("bot_enabled")

	// Check 2: Direction allow-list
	if !f.settings.AllowsDirection(signal.SignalType) {
		return result.fail("direction", fmt.Sprintf("direction %s not allowed", signal.SignalType))
	}
	result.pass("direction")

	// Check 3: Confidence threshold
	if signal.Confidence < f.settings.MinConfidence {
		return result.fail("confidence", fmt.Sprintf(
			"confidence %.1f below threshold %.1f", signal.Confidence, f.settings.MinConfidence))
	}
	result.pass("confidence")

	// Check 4: Concurrent trade limit
	if state.MaxConcurrent > 0 && state.OpenTrades >= state.MaxConcurrent {
		return result.fail("max_concurrent", fmt.Sprintf(
			"%d trades open, limit %d", state.OpenTrades, state.MaxConcurrent))
	}
	result.pass("max_concurrent")

	// Check 5: Cooldown period
	if f.settings.CooldownMinutes > 0 && !state.LastTradeAt.IsZero() {
		cooldown := time.Duration(f.settings.CooldownMinutes) * time.Minute
		if since := time.Since(state.LastTradeAt); since < cooldown {
			return result.fail("cooldown", fmt.Sprintf(
				"last trade %s ago, cooldown %s", since.Round(time.Second), cooldown))
		}
	}
	result.pass("cooldown")

	return result
}

func (r FilterResult) fail(check, reason string) FilterResult {
	r.ShouldExecute = false
	r.BlockReason = reason
	r.ChecksFailed = append(r.ChecksFailed, check)
	return r
}

func (r *FilterResult) pass(check string) {
	r.ChecksPassed = append(r.ChecksPassed, check)
}
