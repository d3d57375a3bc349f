package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"notify-service/internal/config"
)

// NewUpgrader builds the gorilla upgrader used once a request has cleared the
// handshake gatekeeper. Origin policy is the gatekeeper's job, so the
// upgrader itself accepts any origin.
func NewUpgrader(cfg config.WebSocketConfig) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}
