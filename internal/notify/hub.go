package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Hub keeps the websocket connections of connected parties and pushes events
// to them. A party may hold several connections; events go to all of them.
// Parties with no connection are skipped silently.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Notify implements Notifier.
func (h *Hub) Notify(_ context.Context, partyID uuid.UUID, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[partyID] {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping event for slow websocket client",
				zap.String("party_id", partyID.String()),
				zap.String("type", string(ev.Type)))
		}
	}
	return nil
}

// Connected returns the number of open connections for a party.
func (h *Hub) Connected(partyID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[partyID])
}

// ServeWS upgrades the request and registers the connection for partyID
// until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, partyID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register(partyID, c)
	h.logger.Info("websocket connected", zap.String("party_id", partyID.String()))

	go c.writePump()
	c.readPump()

	h.unregister(partyID, c)
	h.logger.Info("websocket disconnected", zap.String("party_id", partyID.String()))
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, id)
	}
}

func (h *Hub) register(partyID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[partyID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[partyID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(partyID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[partyID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, partyID)
	}
}

// readPump discards inbound frames; the channel is push-only. It returns
// when the connection fails or closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
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
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
