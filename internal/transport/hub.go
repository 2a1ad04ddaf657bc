package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bhagyashreemodi/emergency-connect/internal/logger"
	"github.com/bhagyashreemodi/emergency-connect/internal/models"
	"github.com/bhagyashreemodi/emergency-connect/internal/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 45 * time.Second
	pingInterval   = 15 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 32
)

// envelope is the wire frame pushed to clients: a named event plus a
// JSON payload.
type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type client struct {
	id       string
	username string
	conn     *websocket.Conn
	send     chan []byte
}

// Hub upgrades HTTP requests to WebSocket connections, keeps the set of
// open connections, and implements realtime.Sender. Presence events
// (open/close) are forwarded to the coordinator; everything else on a
// connection is inbound noise and discarded.
type Hub struct {
	presence *realtime.PresenceCoordinator
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(presence *realtime.PresenceCoordinator, l *logger.Logger) *Hub {
	return &Hub{
		presence: presence,
		logger:   l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*client),
	}
}

// ServeHTTP handles GET /ws?username=<name>. A connection without a
// username is still served (it receives global broadcasts) but is never
// attributed to a user, so it does not affect presence.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	username := models.NormalizeUsername(r.URL.Query().Get("username"))
	c := &client{
		id:       uuid.New().String(),
		username: username,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go h.writePump(c)

	h.presence.HandleConnect(r.Context(), username, c.id)

	h.readPump(c)

	// Removal and channel close are atomic with respect to Send/SendAll,
	// which hold the read lock while pushing to c.send.
	h.mu.Lock()
	delete(h.clients, c.id)
	close(c.send)
	h.mu.Unlock()

	h.presence.HandleDisconnect(r.Context(), username, c.id)
}

// readPump consumes inbound frames until the connection drops. Clients
// talk to the backend over HTTP; the socket is a push channel only.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", "conn_id", c.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// Send pushes one event to one connection. Unknown connection IDs and
// full send buffers are dropped silently; delivery is best-effort.
func (h *Hub) Send(connID, event string, payload any) {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		h.push(c, event, data)
	}
}

// SendAll pushes one event to every open connection.
func (h *Hub) SendAll(event string, payload any) {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.push(c, event, data)
	}
}

func (h *Hub) push(c *client, event string, data []byte) {
	select {
	case c.send <- data:
	default:
		// Slow consumer, drop rather than block the producer
		h.logger.Debug("dropped event for slow connection", "conn_id", c.id, "event", event)
	}
}
