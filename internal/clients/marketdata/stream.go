package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	streamWriteWait   = 10 * time.Second
	streamDialTimeout = 30 * time.Second

	baseReconnectDelay = 5 * time.Second
	maxReconnectDelay  = 5 * time.Minute

	quoteStaleThreshold = 5 * time.Minute
)

// Quote is one live price observation from the stream.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuoteStream maintains a WebSocket subscription for live quotes and a
// thread-safe last-quote cache.
type QuoteStream struct {
	url     string
	symbols []string
	log     zerolog.Logger

	mu         sync.RWMutex
	conn       *websocket.Conn
	connCtx    context.Context
	cancelFunc context.CancelFunc
	connected  bool
	stopped    bool
	stopChan   chan struct{}

	cacheMu    sync.RWMutex
	quotes     map[string]Quote
	lastUpdate time.Time
}

// NewQuoteStream creates a quote stream client for the given symbols.
func NewQuoteStream(url string, symbols []string, log zerolog.Logger) *QuoteStream {
	return &QuoteStream{
		url:      url,
		symbols:  symbols,
		log:      log.With().Str("component", "quote_stream").Logger(),
		quotes:   make(map[string]Quote),
		stopChan: make(chan struct{}),
	}
}

// Start connects and begins the read loop. A failed initial connection is
// retried in the background rather than surfaced as fatal.
func (qs *QuoteStream) Start() error {
	qs.log.Info().Int("symbols", len(qs.symbols)).Msg("Starting quote stream")
	if err := qs.connect(); err != nil {
		qs.log.Warn().Err(err).Msg("Initial quote stream connection failed, retrying in background")
		go qs.reconnectLoop()
		return err
	}
	qs.mu.RLock()
	ctx := qs.connCtx
	qs.mu.RUnlock()
	go qs.readMessages(ctx)
	return nil
}

// Stop shuts the stream down.
func (qs *QuoteStream) Stop() error {
	qs.mu.Lock()
	if qs.stopped {
		qs.mu.Unlock()
		return nil
	}
	qs.stopped = true
	qs.mu.Unlock()

	close(qs.stopChan)
	return qs.disconnect()
}

func (qs *QuoteStream) connect() error {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), streamDialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, qs.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial quote stream: %w", err)
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	qs.conn = conn
	qs.connCtx = connCtx
	qs.cancelFunc = connCancel
	qs.connected = true

	if err := qs.subscribe(connCtx); err != nil {
		connCancel()
		conn.Close(websocket.StatusNormalClosure, "subscribe failed")
		qs.conn = nil
		qs.connCtx = nil
		qs.cancelFunc = nil
		qs.connected = false
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	qs.log.Info().Msg("Quote stream connected")
	return nil
}

func (qs *QuoteStream) disconnect() error {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	if qs.conn == nil {
		return nil
	}
	if qs.cancelFunc != nil {
		qs.cancelFunc()
		qs.cancelFunc = nil
	}
	err := qs.conn.Close(websocket.StatusNormalClosure, "")
	qs.conn = nil
	qs.connCtx = nil
	qs.connected = false
	if err != nil {
		return fmt.Errorf("error closing quote stream: %w", err)
	}
	return nil
}

func (qs *QuoteStream) subscribe(ctx context.Context) error {
	msg := map[string]interface{}{"subscribe": qs.symbols}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
	defer cancel()
	if err := qs.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send subscription: %w", err)
	}
	return nil
}

func (qs *QuoteStream) readMessages(ctx context.Context) {
	defer func() {
		qs.mu.RLock()
		stopped := qs.stopped
		qs.mu.RUnlock()
		if !stopped {
			go qs.reconnectLoop()
		}
	}()

	for {
		select {
		case <-qs.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		qs.mu.RLock()
		conn := qs.conn
		qs.mu.RUnlock()
		if conn == nil {
			return
		}

		msgType, message, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				qs.log.Debug().Msg("Quote stream closed")
			} else {
				qs.log.Error().Err(err).Msg("Quote stream read error")
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		if err := qs.handleMessage(message); err != nil {
			qs.log.Error().Err(err).Msg("Failed to handle quote message")
		}
	}
}

func (qs *QuoteStream) handleMessage(message []byte) error {
	var quote Quote
	if err := json.Unmarshal(message, &quote); err != nil {
		return fmt.Errorf("failed to parse quote: %w", err)
	}
	if quote.Symbol == "" || quote.Price <= 0 {
		return nil
	}
	quote.UpdatedAt = time.Now()

	qs.cacheMu.Lock()
	qs.quotes[quote.Symbol] = quote
	qs.lastUpdate = quote.UpdatedAt
	qs.cacheMu.Unlock()
	return nil
}

func (qs *QuoteStream) reconnectLoop() {
	attempt := 0
	for {
		select {
		case <-qs.stopChan:
			return
		default:
		}

		attempt++
		delay := qs.backoff(attempt)
		qs.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("Reconnecting quote stream")

		select {
		case <-time.After(delay):
		case <-qs.stopChan:
			return
		}

		if err := qs.connect(); err != nil {
			qs.log.Error().Err(err).Int("attempt", attempt).Msg("Quote stream reconnection failed")
			continue
		}

		qs.mu.RLock()
		ctx := qs.connCtx
		qs.mu.RUnlock()
		go qs.readMessages(ctx)
		return
	}
}

func (qs *QuoteStream) backoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}
	return time.Duration(delay)
}

// LastQuote returns the cached quote for a symbol.
func (qs *QuoteStream) LastQuote(symbol string) (Quote, bool) {
	qs.cacheMu.RLock()
	defer qs.cacheMu.RUnlock()
	q, ok := qs.quotes[symbol]
	return q, ok
}

// Snapshot returns a copy of all cached quotes.
func (qs *QuoteStream) Snapshot() map[string]Quote {
	qs.cacheMu.RLock()
	defer qs.cacheMu.RUnlock()
	out := make(map[string]Quote, len(qs.quotes))
	for k, v := range qs.quotes {
		out[k] = v
	}
	return out
}

// IsStale reports whether no quote has arrived recently.
func (qs *QuoteStream) IsStale() bool {
	qs.cacheMu.RLock()
	defer qs.cacheMu.RUnlock()
	if qs.lastUpdate.IsZero() {
		return true
	}
	return time.Since(qs.lastUpdate) > quoteStaleThreshold
}

// IsConnected reports the connection state.
func (qs *QuoteStream) IsConnected() bool {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	return qs.connected
}
