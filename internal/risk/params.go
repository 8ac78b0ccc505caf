// Package risk implements the trade sizing, risk assessment, and
// portfolio analysis engine. All calculations are pure functions of
// their inputs; the only mutable state is the ParameterStore, which
// guards session-wide risk parameters behind a mutex.
package risk

import (
	"fmt"
	"sync"

	apperrors "dca-trader/internal/errors"
)

// RiskParameters describes an account's risk posture for a session.
type RiskParameters struct {
	AccountBalance      float64
	MaxRiskPercentage   float64
	MaxConcurrentTrades int
	CorrelationLimit    float64
	DrawdownLimit       float64 // percent of balance
	VolatilityThreshold float64 // fractional, 0.05 = 5%
}

// DefaultRiskParameters returns the parameters used when a session
// starts without explicit configuration.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		AccountBalance:      10000,
		MaxRiskPercentage:   2,
		MaxConcurrentTrades: 5,
		CorrelationLimit:    0.7,
		DrawdownLimit:       15,
		VolatilityThreshold: 0.05,
	}
}

// Validate checks parameter values against their allowed ranges.
func (p RiskParameters) Validate() error {
	if p.AccountBalance <= 0 {
		return &apperrors.ValidationError{
			Field:   "account_balance",
			Value:   fmt.Sprintf("%v", p.AccountBalance),
			Message: "must be positive",
		}
	}
	if p.MaxRiskPercentage <= 0 || p.MaxRiskPercentage > 100 {
		return &apperrors.ValidationError{
			Field:   "max_risk_percentage",
			Value:   fmt.Sprintf("%v", p.MaxRiskPercentage),
			Message: "must be in (0, 100]",
		}
	}
	if p.MaxConcurrentTrades < 1 {
		return &apperrors.ValidationError{
			Field:   "max_concurrent_trades",
			Value:   fmt.Sprintf("%v", p.MaxConcurrentTrades),
			Message: "must be at least 1",
		}
	}
	if p.CorrelationLimit < 0 || p.CorrelationLimit > 1 {
		return &apperrors.ValidationError{
			Field:   "correlation_limit",
			Value:   fmt.Sprintf("%v", p.CorrelationLimit),
			Message: "must be in [0, 1]",
		}
	}
	if p.DrawdownLimit <= 0 {
		return &apperrors.ValidationError{
			Field:   "drawdown_limit",
			Value:   fmt.Sprintf("%v", p.DrawdownLimit),
			Message: "must be positive",
		}
	}
	if p.VolatilityThreshold <= 0 {
		return &apperrors.ValidationError{
			Field:   "volatility_threshold",
			Value:   fmt.Sprintf("%v", p.VolatilityThreshold),
			Message: "must be positive",
		}
	}
	return nil
}

// ParameterUpdate carries a partial change to risk parameters. Nil
// fields are left unchanged by Update.
type ParameterUpdate struct {
	AccountBalance      *float64
	MaxRiskPercentage   *float64
	MaxConcurrentTrades *int
	CorrelationLimit    *float64
	DrawdownLimit       *float64
	VolatilityThreshold *float64
}

// ParameterStore holds the risk parameters for the lifetime of a
// session. Reads return a copy; writes go through Update, which
// merges a partial change and validates the result before applying.
type ParameterStore struct {
	mu     sync.RWMutex
	params RiskParameters
}

// NewParameterStore creates a store seeded with the given parameters.
func NewParameterStore(params RiskParameters) (*ParameterStore, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &ParameterStore{params: params}, nil
}

// Get returns a snapshot of the current parameters.
func (s *ParameterStore) Get() RiskParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Update merges the non-nil fields of the update into the current
// parameters. The merged result is validated before it replaces the
// stored parameters; on validation failure the store is unchanged.
func (s *ParameterStore) Update(u ParameterUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.params
	if u.AccountBalance != nil {
		merged.AccountBalance = *u.AccountBalance
	}
	if u.MaxRiskPercentage != nil {
		merged.MaxRiskPercentage = *u.MaxRiskPercentage
	}
	if u.MaxConcurrentTrades != nil {
		merged.MaxConcurrentTrades = *u.MaxConcurrentTrades
	}
	if u.CorrelationLimit != nil {
		merged.CorrelationLimit = *u.CorrelationLimit
	}
	if u.DrawdownLimit != nil {
		merged.DrawdownLimit = *u.DrawdownLimit
	}
	if u.VolatilityThreshold != nil {
		merged.VolatilityThreshold = *u.VolatilityThreshold
	}

	if err := merged.Validate(); err != nil {
		return err
	}
	s.params = merged
	return nil
}
