package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dca-trader/internal/errors"
)

func testConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		CoolDown:         20 * time.Millisecond,
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("binance", testConfig())

	for i := 0; i < 2; i++ {
		b.Record(apperrors.ErrConnectionFailed)
	}
	assert.Equal(t, StateClosed, b.State())
	require.NoError(t, b.Allow())

	b.Record(apperrors.ErrConnectionFailed)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("binance", testConfig())

	b.Record(apperrors.ErrConnectionFailed)
	b.Record(apperrors.ErrConnectionFailed)
	b.Record(nil)
	b.Record(apperrors.ErrConnectionFailed)
	b.Record(apperrors.ErrConnectionFailed)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_OrderRejectionsDoNotTrip(t *testing.T) {
	b := NewBreaker("okx", testConfig())

	rejection := &apperrors.ExchangeError{Exchange: "okx", Code: "51008", Message: "insufficient balance"}
	for i := 0; i < 10; i++ {
		b.Record(rejection)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	b := NewBreaker("bybit", testConfig())

	for i := 0; i < 3; i++ {
		b.Record(apperrors.ErrTimeout)
	}
	require.Equal(t, StateOpen, b.State())

	time.Sleep(25 * time.Millisecond)
	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.Record(nil)
	assert.Equal(t, StateHalfOpen, b.State())
	b.Record(nil)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("bybit", testConfig())

	for i := 0; i < 3; i++ {
		b.Record(apperrors.ErrTimeout)
	}
	time.Sleep(25 * time.Millisecond)
	require.NoError(t, b.Allow())

	b.Record(apperrors.ErrConnectionFailed)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}

func TestBreakerSet_PerExchangeIsolation(t *testing.T) {
	set := NewBreakerSet(testConfig())

	binance := set.Get("binance")
	for i := 0; i < 3; i++ {
		binance.Record(apperrors.ErrConnectionFailed)
	}

	assert.ErrorIs(t, set.Get("binance").Allow(), ErrBreakerOpen)
	assert.NoError(t, set.Get("okx").Allow())
	assert.Same(t, binance, set.Get("binance"))
}
