package handler

import (
	"errors"
	"log"
	"net/http"

	"bloglist-server/internal/middleware"
	"bloglist-server/internal/service"
	"bloglist-server/internal/websocket"
	"bloglist-server/pkg/jwt"
	"bloglist-server/pkg/response"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	manager     *websocket.Manager
	authService *service.AuthService
	upgrader    ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, authService *service.AuthService, readBufferSize, writeBufferSize int) *WebSocketHandler {
	return &WebSocketHandler{
		manager:     manager,
		authService: authService,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection subscribes the caller to the blog activity feed. Browsers
// cannot set headers on websocket requests, so the token may also arrive as
// the "token" query parameter.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}

	if token == "" {
		log.Printf("[WebSocket] Missing authorization token")
		response.Unauthorized(w, "token missing or invalid")
		return
	}

	user, err := h.authService.Authenticate(r.Context(), token)
	if err != nil {
		log.Printf("[WebSocket] Token validation failed: %v", err)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			response.Unauthorized(w, "token expired")
		case errors.Is(err, jwt.ErrInvalidToken):
			response.Unauthorized(w, "token missing or invalid")
		default:
			response.InternalError(w, msgInternal)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Failed to upgrade connection: %v", err)
		return
	}

	log.Printf("[WebSocket] Connection upgraded for user: %s", user.Username)

	client := websocket.NewClient(uuid.New().String(), user.ID, conn, h.manager)

	if !h.manager.Subscribe(client) {
		log.Printf("[WebSocket] Feed stopped, dropping connection for user: %s", user.Username)
		conn.Close()
		return
	}

	client.Serve()
}
