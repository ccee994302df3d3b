// stream.go implements the optional real-time tick feed that keeps Book's
// best-ask mirror warm for markets the discovery layer is tracking, so
// settlement has a recent tick to fall back on when its REST fetch fails.
//
// Unlike the teacher's two-channel (market + user) WSFeed, this feed only
// needs the public market channel: there is no live order flow to
// authenticate against in paper mode. Reconnection and ping/pong handling
// follow the same shape as exchange/ws.go.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval     = 50 * time.Second
	readTimeout      = 90 * time.Second
	maxReconnectWait = 30 * time.Second
	writeTimeout     = 10 * time.Second
	tickBufferSize   = 256
)

// tickEvent is the wire shape of a "last_trade_price" style tick on the
// market channel: fresh ask prices for both outcome tokens of a symbol.
type tickEvent struct {
	EventType string `json:"event_type"`
	Symbol    string `json:"symbol"`
	UpPrice   string `json:"up_price"`
	DownPrice string `json:"down_price"`
}

// Stream manages a single WebSocket connection to the market tick channel.
// It auto-reconnects with exponential backoff (1s -> 30s) and re-subscribes
// to all tracked symbols on reconnect.
type Stream struct {
	url    string
	connMu sync.Mutex
	conn   *websocket.Conn

	subscribedMu sync.RWMutex
	subscribed   map[string]bool

	tickCh chan tickEvent
	book   *Book
	logger *slog.Logger
}

// NewStream creates a tick stream feeding the given Book mirror.
func NewStream(wsURL string, book *Book, logger *slog.Logger) *Stream {
	return &Stream{
		url:        wsURL,
		subscribed: make(map[string]bool),
		tickCh:     make(chan tickEvent, tickBufferSize),
		book:       book,
		logger:     logger.With("component", "quote-stream"),
	}
}

// Subscribe adds symbols to track.
func (s *Stream) Subscribe(symbols []string) error {
	s.subscribedMu.Lock()
	for _, sym := range symbols {
		s.subscribed[sym] = true
	}
	s.subscribedMu.Unlock()
	return s.writeJSON(map[string]any{"operation": "subscribe", "symbols": symbols})
}

// Run connects and maintains the connection until ctx is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("tick stream disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

// Close closes the underlying connection, if any.
func (s *Stream) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Stream) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	defer func() {
		s.connMu.Lock()
		conn.Close()
		s.conn = nil
		s.connMu.Unlock()
	}()

	s.subscribedMu.RLock()
	symbols := make([]string, 0, len(s.subscribed))
	for sym := range s.subscribed {
		symbols = append(symbols, sym)
	}
	s.subscribedMu.RUnlock()
	if len(symbols) > 0 {
		if err := s.writeJSON(map[string]any{"operation": "subscribe", "symbols": symbols}); err != nil {
			return fmt.Errorf("resubscribe: %w", err)
		}
	}

	s.logger.Info("tick stream connected")

	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		s.dispatch(msg)
	}
}

func (s *Stream) dispatch(data []byte) {
	var evt tickEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		s.logger.Debug("ignoring non-json tick message")
		return
	}
	if evt.Symbol == "" {
		return
	}
	s.book.ApplyTick(evt.Symbol, evt.UpPrice, evt.DownPrice)

	select {
	case s.tickCh <- evt:
	default:
	}
}

func (s *Stream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.writeMessage(websocket.TextMessage, []byte("PING")); err != nil {
				s.logger.Warn("ping failed", "error", err)
				return
			}
		}
	}
}

func (s *Stream) writeJSON(v any) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("tick stream not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

func (s *Stream) writeMessage(msgType int, data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("tick stream not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(msgType, data)
}
