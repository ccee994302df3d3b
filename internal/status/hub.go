package status

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cross-price-arb/pkg/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Hub fans a snapshot out to every connected WebSocket client. It also
// implements loop.Reporter, so the loop can push directly into it without
// either package depending on the other's concrete type.
type Hub struct {
	provider Provider

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	mu         sync.RWMutex

	latestMu sync.RWMutex
	latest   Snapshot

	logger *slog.Logger
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub builds a Hub. provider supplies the parts of a Snapshot the loop's
// Report call doesn't carry (open positions).
func NewHub(provider Provider, logger *slog.Logger) *Hub {
	return &Hub{
		provider:   provider,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		logger:     logger.With("component", "status-hub"),
	}
}

// Run services the registration/broadcast loop. Intended to run in its own
// goroutine for the lifetime of the dashboard server.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("dashboard client connected", "count", len(h.clients))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("dashboard client disconnected", "count", len(h.clients))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Report implements loop.Reporter: builds a Snapshot from the pass results
// plus the provider's open positions, stores it for /api/snapshot, and
// broadcasts it to connected clients.
func (h *Hub) Report(opps []types.CrossPriceOpp, stats types.ScannerStats, summary types.TraderSummary) {
	snap := Snapshot{
		Timestamp:     time.Now(),
		Stats:         stats,
		Summary:       summary,
		Opportunities: opps,
	}
	if h.provider != nil {
		snap.Positions = h.provider.Positions()
	}

	h.latestMu.Lock()
	h.latest = snap
	h.latestMu.Unlock()

	h.broadcastEvent(Event{Type: "snapshot", Timestamp: snap.Timestamp, Data: snap})
}

// LatestSnapshot returns the most recently built Snapshot, for /api/snapshot.
func (h *Hub) LatestSnapshot() Snapshot {
	h.latestMu.RLock()
	defer h.latestMu.RUnlock()
	return h.latest
}

func (h *Hub) broadcastEvent(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("failed to marshal dashboard event", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("dashboard broadcast channel full, dropping event")
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("dashboard websocket error", "error", err)
			}
			break
		}
		// read-only channel, client messages are ignored
	}
}

func newClient(hub *Hub, conn *websocket.Conn) *client {
	c := &client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
	return c
}
