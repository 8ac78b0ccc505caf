// Package exchange provides order-placement adapters for the
// supported exchanges. Adapters translate the canonical payload
// fields into exchange-specific REST calls; they hold no trading
// logic of their own.
package exchange

import (
	"context"
	"fmt"

	"dca-trader/internal/models"
)

// Order describes one order to place. Amounts are in quote currency
// (USD); adapters convert to base quantity where the exchange
// requires it.
type Order struct {
	Symbol     string
	Side       models.Side
	MarketType models.MarketType
	// Price is the limit price; zero means a market order.
	Price     float64
	AmountUSD float64
	// ReduceOnly marks protective orders that must not increase the
	// position.
	ReduceOnly bool
	// ClientOrderID carries the idempotency key where the exchange
	// supports one.
	ClientOrderID string
}

// OrderResult is the exchange's acknowledgement of a placed order.
type OrderResult struct {
	OrderID string
	Symbol  string
	Status  string
}

// Adapter places orders on one exchange.
type Adapter interface {
	// Name identifies the exchange.
	Name() models.ExchangeName

	// PlaceOrder submits a single order.
	PlaceOrder(ctx context.Context, order Order) (*OrderResult, error)

	// SetLeverage configures leverage for a futures symbol. Spot
	// adapters return ErrNotSupported.
	SetLeverage(ctx context.Context, symbol string, leverage float64) error

	// GetPrice returns the latest traded price for a symbol.
	GetPrice(ctx context.Context, symbol string, marketType models.MarketType) (float64, error)
}

// Credentials holds the API access configuration for one exchange.
type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
	Testnet    bool
}

// New creates the adapter for the named exchange.
func New(name models.ExchangeName, creds Credentials) (Adapter, error) {
	switch name {
	case models.ExchangeBinance:
		return NewBinanceAdapter(creds), nil
	case models.ExchangeOKX:
		return NewOKXAdapter(creds), nil
	case models.ExchangeBybit:
		return NewBybitAdapter(creds), nil
	default:
		return nil, fmt.Errorf("unknown exchange %q", name)
	}
}
