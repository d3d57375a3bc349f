package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"notify-service/internal/handshake"
	"notify-service/internal/websocket"
)

type WSHandler struct {
	registry   *websocket.Registry
	gatekeeper *handshake.Gatekeeper
	upgrader   *gorilla.Upgrader
	queueSize  int
}

func NewWSHandler(registry *websocket.Registry, gatekeeper *handshake.Gatekeeper, upgrader *gorilla.Upgrader, queueSize int) *WSHandler {
	return &WSHandler{
		registry:   registry,
		gatekeeper: gatekeeper,
		upgrader:   upgrader,
		queueSize:  queueSize,
	}
}

// HandleWebSocket godoc
// @Summary WebSocket upgrade endpoint
// @Description Authenticates the ?token= query parameter and upgrades the connection
// @Tags websocket
// @Param token query string false "Signed bearer token"
// @Success 101 "Switching Protocols"
// @Failure 400 "Bad upgrade headers or missing handshake key"
// @Failure 401 "Authentication failed"
// @Failure 403 "Origin rejected"
// @Failure 405 "Method not allowed"
// @Failure 426 "Unsupported WebSocket version"
// @Router /handler [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	result, ok := h.gatekeeper.Authorize(c.Writer, c.Request)
	if !ok {
		c.Abort()
		return
	}

	var responseHeader http.Header
	if result.Subprotocol != "" {
		responseHeader = http.Header{"Sec-WebSocket-Protocol": []string{result.Subprotocol}}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, responseHeader)
	if err != nil {
		// Upgrade has already written its own response
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	// The principal is fixed before the session becomes visible to the
	// registry; there is no window with an unassigned identity.
	session := websocket.NewSession(conn, result.Principal, h.queueSize)
	h.registry.Add(session)
	session.Start(h.registry)

	slog.Info("WebSocket connection established",
		"sessionID", session.ID(), "user", session.Username(), "subprotocol", result.Subprotocol)
}
