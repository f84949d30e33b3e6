package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Message is a websocket notification
type Message struct {
	Type          string `json:"type"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	ActorID       string `json:"actorId,omitempty"`
	ActorUsername string `json:"actorUsername,omitempty"`
	PhotoID       string `json:"photoId,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Message       string `json:"message,omitempty"`
}

const (
	TypeNewFollower = "new_follower"
	TypePhotoPosted = "photo_posted"
	TypeError       = "error"
	TypePong        = "pong"
)

// ErrNotConnected is returned when the recipient has no open connection
var ErrNotConnected = errors.New("user is not connected")

// conn serializes writes, gorilla connections allow one concurrent writer
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections, one per user
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*conn
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*conn),
	}
}

// Register registers a new WebSocket connection for a user, replacing any
// previous one
func (h *Hub) Register(userID string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.ws.Close()
	}

	h.connections[userID] = &conn{ws: ws}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the user's connection if it is still ws
func (h *Hub) Unregister(userID string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, exists := h.connections[userID]; exists && c.ws == ws {
		c.ws.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID string, message Message) error {
	h.mu.RLock()
	c, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return ErrNotConnected
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.write(data); err != nil {
		h.Unregister(userID, c.ws)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close closes every connection
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, c := range h.connections {
		c.ws.Close()
		delete(h.connections, userID)
	}
}
