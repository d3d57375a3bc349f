package routes

import (
	"github.com/gin-gonic/gin"

	"notify-service/internal/api/handlers"
	"notify-service/internal/api/middleware"
	"notify-service/internal/auth"
	"notify-service/internal/config"
	"notify-service/internal/handshake"
	"notify-service/internal/notify"
	"notify-service/internal/services"
	"notify-service/internal/websocket"
)

type Router struct {
	engine              *gin.Engine
	wsHandler           *handlers.WSHandler
	notificationHandler *handlers.NotificationHandler
	verifier            *auth.Verifier
}

func NewRouter(
	registry *websocket.Registry,
	gatekeeper *handshake.Gatekeeper,
	dispatcher *notify.Dispatcher,
	presence *services.PresenceService,
	verifier *auth.Verifier,
	cfg *config.Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(cfg.WebSocket.AllowedOrigins))
	engine.Use(middleware.LogApi())

	upgrader := websocket.NewUpgrader(cfg.WebSocket)

	return &Router{
		engine:              engine,
		wsHandler:           handlers.NewWSHandler(registry, gatekeeper, upgrader, cfg.WebSocket.SendQueueSize),
		notificationHandler: handlers.NewNotificationHandler(dispatcher, registry, presence),
		verifier:            verifier,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// WebSocket upgrade endpoint; authentication happens in the handshake
	// gatekeeper, not in middleware
	r.engine.GET("/handler", r.wsHandler.HandleWebSocket)

	api := r.engine.Group("/api/v1")

	// Authenticated push endpoints
	notifications := api.Group("/notifications")
	notifications.Use(middleware.RequireAuth(r.verifier))
	{
		notifications.POST("/broadcast", r.notificationHandler.Broadcast)
		notifications.POST("/users/:username", r.notificationHandler.SendToUser)
	}

	api.GET("/sessions", r.notificationHandler.Sessions)
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
