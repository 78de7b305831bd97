package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	EventConnected       = "connected"
	EventCommentsChanged = "comments_changed"
)

// Event is the only message shape sent to subscribers. It carries no comment
// data; receivers reload the forest themselves.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub fans change signals out to connected subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*Client
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*Client),
		log:     log.With().Str("component", "ws-hub").Logger(),
	}
}

// Register adds the connection and starts its write pump.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 16),
	}
	h.clients[conn] = client
	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[conn]; ok {
		close(client.Send)
		delete(h.clients, conn)
	}
}

// Broadcast queues data for every client; slow clients miss the message.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) sendTo(conn *websocket.Conn, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[conn]; ok {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// NotifyCommentsChanged tells subscribers that the persisted comments changed
// outside the API.
func (h *Hub) NotifyCommentsChanged() {
	data, err := json.Marshal(Event{Type: EventCommentsChanged})
	if err != nil {
		h.log.Error().Err(err).Msg("marshal event")
		return
	}
	h.Broadcast(data)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, client := range h.clients {
		close(client.Send)
		delete(h.clients, conn)
	}
}

func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.Unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(client *Client) {
	defer func() {
		client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		client.Conn.Close()
	}()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
