package utils

import "strings"

// NormalizeSymbol converts a display symbol like "BTC/USDT" into the
// canonical concatenated form "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.NewReplacer("/", "", "-", "", "_", "").Replace(symbol))
}

// SymbolForExchange converts a symbol into the instrument format the
// given exchange expects. Binance and Bybit use "BTCUSDT"; OKX uses
// "BTC-USDT".
func SymbolForExchange(symbol, exchange string) string {
	normalized := NormalizeSymbol(symbol)
	if strings.EqualFold(exchange, "okx") {
		base, quote := SplitPair(symbol)
		if quote != "" {
			return base + "-" + quote
		}
	}
	return normalized
}

// SplitPair splits a symbol into base and quote assets. Symbols with
// an explicit separator split at it; concatenated symbols split at a
// known quote-asset suffix. An unrecognized symbol returns the whole
// string as base and an empty quote.
func SplitPair(symbol string) (base, quote string) {
	s := strings.ToUpper(symbol)
	for _, sep := range []string{"/", "-", "_"} {
		if i := strings.Index(s, sep); i > 0 {
			return s[:i], s[i+len(sep):]
		}
	}
	for _, q := range []string{"USDT", "USDC", "BUSD", "USD", "BTC", "ETH"} {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return s[:len(s)-len(q)], q
		}
	}
	return s, ""
}
