package apiserver

import (
	"net/http"

	"facegram/internal/config"
	"facegram/internal/websocket"
)

// WebSocketHandler upgrades authenticated requests to notification push
// connections.
type WebSocketHandler struct {
	Hub             *websocket.Hub
	WebSocketConfig config.WebSocketConfig
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(hub *websocket.Hub, wsCfg config.WebSocketConfig) *WebSocketHandler {
	return &WebSocketHandler{Hub: hub, WebSocketConfig: wsCfg}
}

// ServeWs registers the authenticated user with the hub.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	websocket.ServeWsPerConnection(h.Hub, userID, w, r, h.WebSocketConfig)
}
