package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/PejmanG/chat-app/internal/auth"
	"github.com/PejmanG/chat-app/internal/config"
	"github.com/PejmanG/chat-app/internal/logger"
	"github.com/PejmanG/chat-app/internal/middleware"
)

// Handler upgrades authenticated HTTP requests to WebSocket connections.
type Handler struct {
	hub        *Hub
	controller *Controller
	authCfg    config.AuthConfig
	wsCfg      config.WebSocketConfig
	blacklist  auth.TokenBlacklist
}

// NewHandler creates a WebSocket handshake handler.
func NewHandler(hub *Hub, controller *Controller, authCfg config.AuthConfig, wsCfg config.WebSocketConfig, blacklist auth.TokenBlacklist) *Handler {
	return &Handler{
		hub:        hub,
		controller: controller,
		authCfg:    authCfg,
		wsCfg:      wsCfg,
		blacklist:  blacklist,
	}
}

// tokenFromHandshake extracts the session JWT from the upgrade request.
// Browsers cannot set headers on WebSocket handshakes, so a token query
// parameter is accepted alongside the session cookie.
func tokenFromHandshake(r *http.Request, cookieName string) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return middleware.TokenFromRequest(r, cookieName)
}

// ServeHTTP authenticates the handshake, upgrades the connection and starts
// the read and write pumps. The connection's user identity comes from the
// verified token, never from client-supplied parameters.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.Module("ws")

	tokenString := tokenFromHandshake(r, h.authCfg.CookieName)
	if tokenString == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), tokenString, h.authCfg.JWTSecretKey, h.blacklist)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  h.wsCfg.MaxMessageSizeBytes,
		WriteBufferSize: h.wsCfg.MaxMessageSizeBytes,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:         h.hub,
		conn:        conn,
		send:        make(chan []byte, h.wsCfg.SendBufferSize),
		UserID:      claims.UserID,
		handleEvent: h.controller.HandleEvent,
	}
	h.hub.Register(client)

	go client.writePump(h.wsCfg)
	go client.readPump(h.wsCfg)

	log.Info().Uint("userId", client.UserID).Msg("client connected")
}
