package exchange

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"

	apperrors "dca-trader/internal/errors"
	"dca-trader/internal/models"
	"dca-trader/pkg/utils"
)

// BinanceAdapter places orders through the official Binance SDK.
type BinanceAdapter struct {
	spot *binance.Client
	fut  *futures.Client
}

// NewBinanceAdapter creates a Binance adapter. Testnet credentials
// switch both the spot and futures clients to the sandbox endpoints.
func NewBinanceAdapter(creds Credentials) *BinanceAdapter {
	binance.UseTestnet = creds.Testnet
	futures.UseTestnet = creds.Testnet
	return &BinanceAdapter{
		spot: binance.NewClient(creds.APIKey, creds.APISecret),
		fut:  binance.NewFuturesClient(creds.APIKey, creds.APISecret),
	}
}

// Name identifies the exchange.
func (a *BinanceAdapter) Name() models.ExchangeName { return models.ExchangeBinance }

// PlaceOrder submits a single order.
func (a *BinanceAdapter) PlaceOrder(ctx context.Context, order Order) (*OrderResult, error) {
	if order.MarketType == models.MarketFutures {
		return a.placeFuturesOrder(ctx, order)
	}
	return a.placeSpotOrder(ctx, order)
}

func (a *BinanceAdapter) placeSpotOrder(ctx context.Context, order Order) (*OrderResult, error) {
	symbol := utils.SymbolForExchange(order.Symbol, "binance")
	svc := a.spot.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideType(order.Side))

	if order.ClientOrderID != "" {
		svc.NewClientOrderID(order.ClientOrderID)
	}

	if order.Price > 0 {
		quantity := order.AmountUSD / order.Price
		svc.Type(binance.OrderTypeLimit).
			TimeInForce(binance.TimeInForceTypeGTC).
			Price(formatFloat(order.Price)).
			Quantity(formatFloat(quantity))
	} else {
		// Spot market orders size by quote amount directly.
		svc.Type(binance.OrderTypeMarket).
			QuoteOrderQty(formatFloat(order.AmountUSD))
	}

	resp, err := svc.Do(ctx)
	if err != nil {
		return nil, wrapBinanceErr("place order", err)
	}
	return &OrderResult{
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Symbol:  resp.Symbol,
		Status:  string(resp.Status),
	}, nil
}

func (a *BinanceAdapter) placeFuturesOrder(ctx context.Context, order Order) (*OrderResult, error) {
	symbol := utils.SymbolForExchange(order.Symbol, "binance")

	price := order.Price
	if price <= 0 {
		// Futures orders size by base quantity, so market orders need
		// the current price for conversion.
		live, err := a.GetPrice(ctx, order.Symbol, models.MarketFutures)
		if err != nil {
			return nil, err
		}
		price = live
	}
	quantity := order.AmountUSD / price

	svc := a.fut.NewCreateOrderService().
		Symbol(symbol).
		Side(futures.SideType(order.Side)).
		Quantity(formatFloat(quantity))

	if order.ClientOrderID != "" {
		svc.NewClientOrderID(order.ClientOrderID)
	}
	if order.ReduceOnly {
		svc.ReduceOnly(true)
	}

	if order.Price > 0 {
		svc.Type(futures.OrderTypeLimit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(formatFloat(order.Price))
	} else {
		svc.Type(futures.OrderTypeMarket)
	}

	resp, err := svc.Do(ctx)
	if err != nil {
		return nil, wrapBinanceErr("place order", err)
	}
	return &OrderResult{
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Symbol:  resp.Symbol,
		Status:  string(resp.Status),
	}, nil
}

// SetLeverage configures leverage for a futures symbol.
func (a *BinanceAdapter) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	_, err := a.fut.NewChangeLeverageService().
		Symbol(utils.SymbolForExchange(symbol, "binance")).
		Leverage(int(leverage)).
		Do(ctx)
	if err != nil {
		return wrapBinanceErr("set leverage", err)
	}
	return nil
}

// GetPrice returns the latest traded price for a symbol.
func (a *BinanceAdapter) GetPrice(ctx context.Context, symbol string, marketType models.MarketType) (float64, error) {
	normalized := utils.SymbolForExchange(symbol, "binance")

	if marketType == models.MarketFutures {
		prices, err := a.fut.NewListPricesService().Symbol(normalized).Do(ctx)
		if err != nil {
			return 0, wrapBinanceErr("get price", err)
		}
		if len(prices) == 0 {
			return 0, apperrors.ErrSymbolNotFound
		}
		return strconv.ParseFloat(prices[0].Price, 64)
	}

	prices, err := a.spot.NewListPricesService().Symbol(normalized).Do(ctx)
	if err != nil {
		return 0, wrapBinanceErr("get price", err)
	}
	if len(prices) == 0 {
		return 0, apperrors.ErrSymbolNotFound
	}
	return strconv.ParseFloat(prices[0].Price, 64)
}

func wrapBinanceErr(op string, err error) error {
	return &apperrors.ExchangeError{
		Exchange: string(models.ExchangeBinance),
		Message:  op,
		Err:      err,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
