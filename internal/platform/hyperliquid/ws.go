package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	MainnetWSURL = "wss://api.hyperliquid.xyz/ws"
	TestnetWSURL = "wss://api.hyperliquid-testnet.xyz/ws"

	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10

	wsReconnectDelay    = 2 * time.Second
	wsMaxReconnectDelay = 60 * time.Second
)

// MidsHandler receives every mid-price update: symbol to mid price.
type MidsHandler func(map[string]decimal.Decimal)

// WSClient streams live mid prices over the exchange websocket.
type WSClient struct {
	wsURL string

	mu     sync.RWMutex
	conn   *websocket.Conn
	closed bool

	handlerMu sync.RWMutex
	handlers  []MidsHandler

	done chan struct{}
}

// NewWSClient creates a websocket client. wsURL defaults to mainnet when
// empty.
func NewWSClient(wsURL string) *WSClient {
	if wsURL == "" {
		wsURL = MainnetWSURL
	}
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// Connect dials the websocket and subscribes to the all-mids channel.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("hyperliquid/ws: client is closed")
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("hyperliquid/ws: connect: %w", err)
	}
	w.conn = conn

	w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	if err := w.sendSubscribe(); err != nil {
		conn.Close()
		return fmt.Errorf("hyperliquid/ws: subscribe: %w", err)
	}

	// Each loop is bound to the connection it was started for, so loops
	// left over from a replaced connection exit instead of piling up
	// across reconnects.
	go w.readLoop(conn)
	go w.pingLoop(conn)

	return nil
}

// connCurrent reports whether conn is still the active connection.
func (w *WSClient) connCurrent(conn *websocket.Conn) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.conn == conn
}

// OnMids registers a handler invoked for every mid-price snapshot.
func (w *WSClient) OnMids(handler MidsHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Close shuts down the connection.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Internal methods
// --------------------------------------------------------------------------

// sendSubscribe subscribes to the allMids channel. Caller must hold w.mu.
func (w *WSClient) sendSubscribe() error {
	sub := map[string]any{
		"method":       "subscribe",
		"subscription": map[string]any{"type": "allMids"},
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WSClient) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-w.done:
			return
		default:
		}
		if !w.connCurrent(conn) {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}
			if w.connCurrent(conn) {
				w.reconnect()
			}
			return
		}

		w.handleMessage(message)
	}
}

func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if !w.connCurrent(conn) {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses an allMids frame and fans it out to handlers.
func (w *WSClient) handleMessage(raw []byte) {
	var envelope struct {
		Channel string `json:"channel"`
		Data    struct {
			Mids map[string]string `json:"mids"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	if envelope.Channel != "allMids" || len(envelope.Data.Mids) == 0 {
		return
	}

	mids := make(map[string]decimal.Decimal, len(envelope.Data.Mids))
	for sym, px := range envelope.Data.Mids {
		d, err := decimal.NewFromString(px)
		if err != nil {
			continue
		}
		mids[sym] = d
	}

	w.handlerMu.RLock()
	handlers := w.handlers
	w.handlerMu.RUnlock()
	for _, h := range handlers {
		h(mids)
	}
}

// reconnect re-establishes the connection with exponential backoff. The
// allMids subscription is restored by Connect.
func (w *WSClient) reconnect() {
	delay := wsReconnectDelay
	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()
		if err == nil {
			return
		}

		delay *= 2
		if delay > wsMaxReconnectDelay {
			delay = wsMaxReconnectDelay
		}
	}
}
