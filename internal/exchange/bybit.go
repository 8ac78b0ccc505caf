package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "dca-trader/internal/errors"
	"dca-trader/internal/models"
	"dca-trader/pkg/utils"
)

const (
	bybitBaseURL    = "https://api.bybit.com"
	bybitTestnetURL = "https://api-testnet.bybit.com"
	bybitRecvWindow = "5000"
)

// BybitAdapter places orders through the Bybit v5 REST API. Requests
// are signed with HMAC-SHA256 over timestamp+key+recvWindow+body, hex
// encoded. Testnet uses a separate host.
type BybitAdapter struct {
	creds  Credentials
	client *http.Client
	base   string
}

// NewBybitAdapter creates a Bybit adapter.
func NewBybitAdapter(creds Credentials) *BybitAdapter {
	base := bybitBaseURL
	if creds.Testnet {
		base = bybitTestnetURL
	}
	return &BybitAdapter{
		creds:  creds,
		client: &http.Client{Timeout: 15 * time.Second},
		base:   base,
	}
}

// Name identifies the exchange.
func (a *BybitAdapter) Name() models.ExchangeName { return models.ExchangeBybit }

type bybitResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

type bybitOrderResult struct {
	OrderID string `json:"orderId"`
}

type bybitTickerResult struct {
	List []struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
	} `json:"list"`
}

func bybitCategory(marketType models.MarketType) string {
	if marketType == models.MarketFutures {
		return "linear"
	}
	return "spot"
}

// PlaceOrder submits a single order.
func (a *BybitAdapter) PlaceOrder(ctx context.Context, order Order) (*OrderResult, error) {
	symbol := utils.SymbolForExchange(order.Symbol, "bybit")

	body := map[string]interface{}{
		"category": bybitCategory(order.MarketType),
		"symbol":   symbol,
		"side":     bybitSide(order.Side),
	}
	if order.ClientOrderID != "" {
		body["orderLinkId"] = order.ClientOrderID
	}
	if order.Price > 0 {
		body["orderType"] = "Limit"
		body["timeInForce"] = "GTC"
		body["price"] = formatFloat(order.Price)
		body["qty"] = formatFloat(order.AmountUSD / order.Price)
	} else {
		body["orderType"] = "Market"
		if order.MarketType == models.MarketSpot {
			// Spot market orders size in quote currency.
			body["marketUnit"] = "quoteCoin"
			body["qty"] = formatFloat(order.AmountUSD)
		} else {
			price, err := a.GetPrice(ctx, order.Symbol, order.MarketType)
			if err != nil {
				return nil, err
			}
			body["qty"] = formatFloat(order.AmountUSD / price)
		}
	}
	if order.ReduceOnly {
		body["reduceOnly"] = true
	}

	var resp bybitResponse
	if err := a.request(ctx, http.MethodPost, "/v5/order/create", body, &resp); err != nil {
		return nil, err
	}
	if resp.RetCode != 0 {
		return nil, a.apiError("place order", resp.RetCode, resp.RetMsg)
	}

	var result bybitOrderResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, a.apiError("place order", resp.RetCode, err.Error())
	}
	return &OrderResult{OrderID: result.OrderID, Symbol: symbol, Status: "NEW"}, nil
}

// SetLeverage configures leverage for a futures symbol.
func (a *BybitAdapter) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	lev := formatFloat(leverage)
	body := map[string]interface{}{
		"category":     "linear",
		"symbol":       utils.SymbolForExchange(symbol, "bybit"),
		"buyLeverage":  lev,
		"sellLeverage": lev,
	}
	var resp bybitResponse
	if err := a.request(ctx, http.MethodPost, "/v5/position/set-leverage", body, &resp); err != nil {
		return err
	}
	// 110043 means leverage already set to this value.
	if resp.RetCode != 0 && resp.RetCode != 110043 {
		return a.apiError("set leverage", resp.RetCode, resp.RetMsg)
	}
	return nil
}

// GetPrice returns the latest traded price for a symbol.
func (a *BybitAdapter) GetPrice(ctx context.Context, symbol string, marketType models.MarketType) (float64, error) {
	path := fmt.Sprintf("/v5/market/tickers?category=%s&symbol=%s",
		bybitCategory(marketType), utils.SymbolForExchange(symbol, "bybit"))

	var resp bybitResponse
	if err := a.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	if resp.RetCode != 0 {
		return 0, a.apiError("get price", resp.RetCode, resp.RetMsg)
	}

	var result bybitTickerResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return 0, a.apiError("get price", resp.RetCode, err.Error())
	}
	if len(result.List) == 0 {
		return 0, apperrors.ErrSymbolNotFound
	}
	return strconv.ParseFloat(result.List[0].LastPrice, 64)
}

func (a *BybitAdapter) request(ctx context.Context, method, path string, body interface{}, out *bybitResponse) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("X-BAPI-API-KEY", a.creds.APIKey)
	req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	req.Header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)
	req.Header.Set("X-BAPI-SIGN", a.sign(timestamp, method, path, payload))

	resp, err := a.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConnectionFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.ErrRateLimited
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// sign covers the request body for POSTs and the raw query string for
// GETs, per the v5 signing rules.
func (a *BybitAdapter) sign(timestamp, method, path string, body []byte) string {
	var content string
	if method == http.MethodGet {
		if i := bytes.IndexByte([]byte(path), '?'); i >= 0 {
			content = path[i+1:]
		}
	} else {
		content = string(body)
	}

	mac := hmac.New(sha256.New, []byte(a.creds.APISecret))
	mac.Write([]byte(timestamp + a.creds.APIKey + bybitRecvWindow + content))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *BybitAdapter) apiError(op string, code int, msg string) error {
	return apperrors.NewExchangeError(
		string(models.ExchangeBybit), strconv.Itoa(code), fmt.Sprintf("%s: %s", op, msg), nil)
}

func bybitSide(side models.Side) string {
	if side == models.SideBuy {
		return "Buy"
	}
	return "Sell"
}
