package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"chat-relay/internal/models"
)

// Hub maintains the set of live feed connections. The relay has a single
// implicit room, so every event goes to every client.
type Hub struct {
	clients map[*websocket.Conn]ConnInfo
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection on the feed.
func (h *Hub) AddClient(conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = info
}

// RemoveClient removes a feed connection.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastMessage sends a stored message to every connected client.
func (h *Hub) BroadcastMessage(msg models.Message) {
	h.BroadcastEvent(models.RelayEvent{Type: "message", Message: &msg})
}

// BroadcastEvent sends a relay event to every connected client. Connections
// that fail to write are dropped.
func (h *Hub) BroadcastEvent(event models.RelayEvent) {
	payload, _ := json.Marshal(event)

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			// The connection's read loop owns gauge and event accounting.
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveClient(conn)
		}
	}
}
