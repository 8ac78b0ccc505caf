// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrTradeNotFound       = errors.New("trade not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrConnectionFailed    = errors.New("connection failed")
	ErrTimeout             = errors.New("operation timed out")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrBotDisabled         = errors.New("bot is disabled")
	ErrNotSupported        = errors.New("operation not supported")
)

// InvalidStopLossError signals a degenerate stop-loss: zero distance from entry
// or a stop on the wrong side of the entry for the trade direction. Sizing must
// fail with this error rather than let Inf/NaN reach an order-placement call.
type InvalidStopLossError struct {
	Symbol     string
	Side       string
	EntryPrice float64
	StopPrice  float64
	Reason     string
}

func (e *InvalidStopLossError) Error() string {
	return fmt.Sprintf("invalid stop-loss for %s %s (entry %.8g, stop %.8g): %s",
		e.Side, e.Symbol, e.EntryPrice, e.StopPrice, e.Reason)
}

// NewInvalidStopLossError creates a new InvalidStopLossError.
func NewInvalidStopLossError(symbol, side string, entry, stop float64, reason string) *InvalidStopLossError {
	return &InvalidStopLossError{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: entry,
		StopPrice:  stop,
		Reason:     reason,
	}
}

// ValidationError represents an out-of-range or malformed input value,
// detected at the boundary where configuration is accepted.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ExchangeError represents an error returned by an exchange API.
type ExchangeError struct {
	Exchange string
	Code     string
	Message  string
	Err      error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error [%s]: %s: %v", e.Exchange, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error [%s]: %s", e.Exchange, e.Code, e.Message)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// NewExchangeError creates a new ExchangeError.
func NewExchangeError(exchange, code, message string, err error) *ExchangeError {
	return &ExchangeError{
		Exchange: exchange,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}

// RiskError represents a risk limit violation.
type RiskError struct {
	Rule    string
	Current float64
	Limit   float64
	Message string
}

func (e *RiskError) Error() string {
	return fmt.Sprintf("risk violation [%s]: %s (current: %.2f, limit: %.2f)", e.Rule, e.Message, e.Current, e.Limit)
}

// NewRiskError creates a new RiskError.
func NewRiskError(rule string, current, limit float64, message string) *RiskError {
	return &RiskError{
		Rule:    rule,
		Current: current,
		Limit:   limit,
		Message: message,
	}
}

// StoreError represents a persistence-layer error.
type StoreError struct {
	Op      string
	TradeID string
	Err     error
}

func (e *StoreError) Error() string {
	if e.TradeID != "" {
		return fmt.Sprintf("store error [%s] trade %s: %v", e.Op, e.TradeID, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
