package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dca-trader/pkg/utils"
)

const (
	binanceStreamURL       = "wss://stream.binance.com:9443/stream"
	binanceFuturesStream   = "wss://fstream.binance.com/stream"
	tickerReadTimeout      = time.Minute
	tickerReconnectMinWait = time.Second
	tickerReconnectMaxWait = 30 * time.Second
)

// Tick is one price update from the stream.
type Tick struct {
	Symbol    string
	Price     float64
	Volume24h float64
	Timestamp time.Time
}

// TickHandler receives price updates.
type TickHandler func(Tick)

// miniTickerEvent is the Binance 24h miniTicker stream payload.
type miniTickerEvent struct {
	Stream string `json:"stream"`
	Data   struct {
		EventType   string `json:"e"`
		EventTime   int64  `json:"E"`
		Symbol      string `json:"s"`
		ClosePrice  string `json:"c"`
		QuoteVolume string `json:"q"`
	} `json:"data"`
}

// Ticker subscribes to Binance miniTicker streams over websocket and
// fans updates out to a handler and the stats tracker. It reconnects
// with backoff until Stop is called.
type Ticker struct {
	symbols []string
	futures bool
	stats   *StatsTracker
	handler TickHandler
	logger  zerolog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewTicker creates a ticker for the given symbols. The handler may
// be nil; the stats tracker is always fed.
func NewTicker(symbols []string, futures bool, stats *StatsTracker, handler TickHandler, logger zerolog.Logger) *Ticker {
	return &Ticker{
		symbols: symbols,
		futures: futures,
		stats:   stats,
		handler: handler,
		logger:  logger.With().Str("component", "ticker").Logger(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins streaming. It returns after the first connection
// attempt; reconnection is handled internally until Stop or context
// cancellation.
func (t *Ticker) Start(ctx context.Context) {
	go t.run(ctx)
}

// Stop terminates the stream and waits for the read loop to exit.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
		t.mu.Lock()
		if t.conn != nil {
			t.conn.Close()
		}
		t.mu.Unlock()
	})
	<-t.done
}

func (t *Ticker) streamURL() string {
	streams := make([]string, 0, len(t.symbols))
	for _, s := range t.symbols {
		streams = append(streams, strings.ToLower(utils.NormalizeSymbol(s))+"@miniTicker")
	}
	base := binanceStreamURL
	if t.futures {
		base = binanceFuturesStream
	}
	return fmt.Sprintf("%s?streams=%s", base, strings.Join(streams, "/"))
}

func (t *Ticker) run(ctx context.Context) {
	defer close(t.done)

	wait := tickerReconnectMinWait
	for {
		select {
		case <-t.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := t.streamOnce(ctx); err != nil {
			t.logger.Warn().Err(err).Dur("retry_in", wait).Msg("Stream disconnected")
		}

		select {
		case <-t.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait *= 2
		if wait > tickerReconnectMaxWait {
			wait = tickerReconnectMaxWait
		}
	}
}

func (t *Ticker) streamOnce(ctx context.Context) error {
	url := t.streamURL()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", url, err)
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	defer conn.Close()

	t.logger.Info().Int("symbols", len(t.symbols)).Msg("Stream connected")

	conn.SetReadDeadline(time.Now().Add(tickerReadTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(tickerReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(tickerReadTimeout))

		var event miniTickerEvent
		if err := json.Unmarshal(message, &event); err != nil {
			t.logger.Debug().Err(err).Msg("Skipping unparseable message")
			continue
		}
		if event.Data.Symbol == "" {
			continue
		}

		price, err := strconv.ParseFloat(event.Data.ClosePrice, 64)
		if err != nil || price <= 0 {
			continue
		}
		volume, _ := strconv.ParseFloat(event.Data.QuoteVolume, 64)

		tick := Tick{
			Symbol:    event.Data.Symbol,
			Price:     price,
			Volume24h: volume,
			Timestamp: time.UnixMilli(event.Data.EventTime),
		}
		if t.stats != nil {
			t.stats.Observe(tick.Symbol, tick.Price, tick.Volume24h)
		}
		if t.handler != nil {
			t.handler(tick)
		}
	}
}
