package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"social-house-backend/internal/middleware"
	"social-house-backend/internal/notify"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub      *notify.Hub
	resolver middleware.SessionResolver
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. allowedOrigin "*"
// accepts any Origin header.
func NewWebSocketHandler(hub *notify.Hub, resolver middleware.SessionResolver, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// HandleWebSocket handles GET /api/ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if c, err := r.Cookie(middleware.SessionCookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.resolver.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg notify.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(userID, notify.Message{Type: notify.TypeError, Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "ping":
			h.reply(userID, notify.Message{Type: notify.TypePong, Timestamp: time.Now().UnixMilli()})
		default:
			h.reply(userID, notify.Message{Type: notify.TypeError, Message: "Unknown message type"})
		}
	}
}

func (h *WebSocketHandler) reply(userID string, msg notify.Message) {
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to send WebSocket message")
	}
}
