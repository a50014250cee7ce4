package realtime

import (
	"log/slog"
	"net/http"

	myMiddleware "fonnect/internal/middleware"

	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(hub *Hub, allowedOrigins []string, log *slog.Logger) *Handler {
	policy := newOriginPolicy(allowedOrigins)
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if policy.check(r) {
					return true
				}
				log.Warn("Blocked websocket from disallowed origin", "origin", r.Header.Get("Origin"))
				return false
			},
		},
		log: log,
	}
}

// ServeWs upgrades an authenticated request. The username comes from the
// verified token placed in the context by the auth middleware.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	_, username, ok := myMiddleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, username, h.log)
	h.hub.Connect(client)

	go client.WritePump()
	go client.ReadPump()
}
