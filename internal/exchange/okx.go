package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
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

const okxBaseURL = "https://www.okx.com"

// OKXAdapter places orders through the OKX v5 REST API. Requests are
// signed with HMAC-SHA256 over timestamp+method+path+body, base64
// encoded. Demo trading is selected with the x-simulated-trading
// header rather than a separate host.
type OKXAdapter struct {
	creds  Credentials
	client *http.Client
	base   string
}

// NewOKXAdapter creates an OKX adapter.
func NewOKXAdapter(creds Credentials) *OKXAdapter {
	return &OKXAdapter{
		creds:  creds,
		client: &http.Client{Timeout: 15 * time.Second},
		base:   okxBaseURL,
	}
}

// Name identifies the exchange.
func (a *OKXAdapter) Name() models.ExchangeName { return models.ExchangeOKX }

type okxResponse struct {
	Code string            `json:"code"`
	Msg  string            `json:"msg"`
	Data []json.RawMessage `json:"data"`
}

type okxOrderData struct {
	OrdID string `json:"ordId"`
	SCode string `json:"sCode"`
	SMsg  string `json:"sMsg"`
}

type okxTickerData struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

// PlaceOrder submits a single order.
func (a *OKXAdapter) PlaceOrder(ctx context.Context, order Order) (*OrderResult, error) {
	instID := utils.SymbolForExchange(order.Symbol, "okx")

	tdMode := "cash"
	if order.MarketType == models.MarketFutures {
		tdMode = "cross"
		instID += "-SWAP"
	}

	body := map[string]string{
		"instId": instID,
		"tdMode": tdMode,
		"side":   sideLower(order.Side),
	}
	if order.ClientOrderID != "" {
		body["clOrdId"] = okxClientID(order.ClientOrderID)
	}
	if order.Price > 0 {
		body["ordType"] = "limit"
		body["px"] = formatFloat(order.Price)
		body["sz"] = formatFloat(order.AmountUSD / order.Price)
	} else {
		// Market buys size in quote currency, market sells in base.
		body["ordType"] = "market"
		if order.Side == models.SideBuy {
			body["tgtCcy"] = "quote_ccy"
			body["sz"] = formatFloat(order.AmountUSD)
		} else {
			price, err := a.GetPrice(ctx, order.Symbol, order.MarketType)
			if err != nil {
				return nil, err
			}
			body["sz"] = formatFloat(order.AmountUSD / price)
		}
	}
	if order.ReduceOnly {
		body["reduceOnly"] = "true"
	}

	var resp okxResponse
	if err := a.request(ctx, http.MethodPost, "/api/v5/trade/order", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, a.apiError("place order", resp.Code, resp.Msg)
	}

	var data okxOrderData
	if err := json.Unmarshal(resp.Data[0], &data); err != nil {
		return nil, a.apiError("place order", resp.Code, err.Error())
	}
	if data.SCode != "" && data.SCode != "0" {
		return nil, a.apiError("place order", data.SCode, data.SMsg)
	}
	return &OrderResult{OrderID: data.OrdID, Symbol: instID, Status: "NEW"}, nil
}

// SetLeverage configures leverage for a futures symbol.
func (a *OKXAdapter) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	body := map[string]string{
		"instId":  utils.SymbolForExchange(symbol, "okx") + "-SWAP",
		"lever":   strconv.Itoa(int(leverage)),
		"mgnMode": "cross",
	}
	var resp okxResponse
	if err := a.request(ctx, http.MethodPost, "/api/v5/account/set-leverage", body, &resp); err != nil {
		return err
	}
	if resp.Code != "0" {
		return a.apiError("set leverage", resp.Code, resp.Msg)
	}
	return nil
}

// GetPrice returns the latest traded price for a symbol.
func (a *OKXAdapter) GetPrice(ctx context.Context, symbol string, marketType models.MarketType) (float64, error) {
	instID := utils.SymbolForExchange(symbol, "okx")
	if marketType == models.MarketFutures {
		instID += "-SWAP"
	}

	var resp okxResponse
	path := "/api/v5/market/ticker?instId=" + instID
	if err := a.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	if len(resp.Data) == 0 {
		return 0, apperrors.ErrSymbolNotFound
	}

	var data okxTickerData
	if err := json.Unmarshal(resp.Data[0], &data); err != nil {
		return 0, a.apiError("get price", resp.Code, err.Error())
	}
	return strconv.ParseFloat(data.Last, 64)
}

func (a *OKXAdapter) request(ctx context.Context, method, path string, body interface{}, out *okxResponse) error {
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

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	req.Header.Set("OK-ACCESS-KEY", a.creds.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", a.sign(timestamp, method, path, payload))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", a.creds.Passphrase)
	if a.creds.Testnet {
		req.Header.Set("x-simulated-trading", "1")
	}

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

func (a *OKXAdapter) sign(timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(a.creds.APISecret))
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (a *OKXAdapter) apiError(op, code, msg string) error {
	return apperrors.NewExchangeError(
		string(models.ExchangeOKX), code, fmt.Sprintf("%s: %s", op, msg), nil)
}

// okxClientID strips characters OKX rejects in client order IDs.
func okxClientID(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id) && len(out) < 32; i++ {
		c := id[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out = append(out, c)
		}
	}
	return string(out)
}

func sideLower(side models.Side) string {
	if side == models.SideBuy {
		return "buy"
	}
	return "sell"
}
