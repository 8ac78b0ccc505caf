package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dca-trader/internal/errors"
)

func TestParameterStore_UpdateMergesPartialChanges(t *testing.T) {
	store, err := NewParameterStore(DefaultRiskParameters())
	require.NoError(t, err)

	balance := 25000.0
	limit := 10.0
	require.NoError(t, store.Update(ParameterUpdate{
		AccountBalance: &balance,
		DrawdownLimit:  &limit,
	}))

	got := store.Get()
	assert.Equal(t, 25000.0, got.AccountBalance)
	assert.Equal(t, 10.0, got.DrawdownLimit)
	// Untouched fields keep their defaults.
	assert.Equal(t, 2.0, got.MaxRiskPercentage)
	assert.Equal(t, 5, got.MaxConcurrentTrades)
}

func TestParameterStore_InvalidUpdateLeavesStoreUnchanged(t *testing.T) {
	store, err := NewParameterStore(DefaultRiskParameters())
	require.NoError(t, err)

	risk := 150.0
	err = store.Update(ParameterUpdate{MaxRiskPercentage: &risk})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "max_risk_percentage", verr.Field)
	assert.Equal(t, 2.0, store.Get().MaxRiskPercentage)
}

func TestNewParameterStore_RejectsInvalidSeed(t *testing.T) {
	params := DefaultRiskParameters()
	params.AccountBalance = -1

	_, err := NewParameterStore(params)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "account_balance", verr.Field)
}

func TestRiskParametersValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RiskParameters)
		field  string
	}{
		{"zero balance", func(p *RiskParameters) { p.AccountBalance = 0 }, "account_balance"},
		{"risk over 100", func(p *RiskParameters) { p.MaxRiskPercentage = 101 }, "max_risk_percentage"},
		{"zero concurrent", func(p *RiskParameters) { p.MaxConcurrentTrades = 0 }, "max_concurrent_trades"},
		{"correlation over 1", func(p *RiskParameters) { p.CorrelationLimit = 1.5 }, "correlation_limit"},
		{"zero drawdown limit", func(p *RiskParameters) { p.DrawdownLimit = 0 }, "drawdown_limit"},
		{"zero volatility threshold", func(p *RiskParameters) { p.VolatilityThreshold = 0 }, "volatility_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultRiskParameters()
			tt.mutate(&params)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, params.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
