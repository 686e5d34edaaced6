// Package trade — WebSocket hub broadcasting settled trades.
package trade

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/predyx/market-engine/internal/metrics"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
)

// Message is a JSON message sent to WebSocket clients after each settled
// trade.
type Message struct {
	Type      string `json:"type"`
	MarketID  string `json:"market_id"`
	OutcomeID string `json:"outcome_id"`
	Side      string `json:"side,omitempty"`
	Shares    string `json:"shares,omitempty"`
	Price     string `json:"price,omitempty"`
}

// Hub manages WebSocket connections and fans settled trades out to all
// connected clients.
//
// The client map and every connection write are owned by Run's goroutine:
// broadcasts and keepalive pings both go through the event loop, so each
// connection has exactly one writer (gorilla/websocket allows at most one
// concurrent writer per conn).
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *Hub) Run() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = true
			metrics.WebSocketClients.Set(float64(len(h.clients)))
			slog.Info("ws client connected", "total", len(h.clients))

		case conn := <-h.unregister:
			h.drop(conn)

		case msg := <-h.broadcast:
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.drop(conn)
				}
			}

		case <-ticker.C:
			// Keepalive through proxies; dead connections surface here.
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					h.drop(conn)
				}
			}
		}
	}
}

// drop closes and removes a connection. Only called from Run's goroutine.
func (h *Hub) drop(conn *websocket.Conn) {
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

// Broadcast sends a message to all connected clients. Drops the message
// if the buffer is full rather than blocking settlement.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /ws.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	h.register <- conn

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
