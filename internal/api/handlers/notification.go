package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notify-service/internal/api/middleware"
	"notify-service/internal/notify"
	"notify-service/internal/services"
	"notify-service/internal/websocket"
	"notify-service/pkg/response"
)

type NotificationRequest struct {
	Notification string `json:"notification" binding:"required"`
}

type NotificationHandler struct {
	dispatcher *notify.Dispatcher
	registry   *websocket.Registry
	presence   *services.PresenceService
}

func NewNotificationHandler(dispatcher *notify.Dispatcher, registry *websocket.Registry, presence *services.PresenceService) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		registry:   registry,
		presence:   presence,
	}
}

// Broadcast godoc
// @Summary Push a notification to every connected client
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body NotificationRequest true "Notification text"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /notifications/broadcast [post]
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": response.ErrCodeBadPayload, "error": response.Message(response.ErrCodeBadPayload)})
		return
	}

	principal, _ := middleware.PrincipalFromContext(c)
	if err := h.dispatcher.Broadcast(notify.Notification{User: principal, Notification: req.Notification}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": response.ErrCodeEncodeFailure, "error": response.Message(response.ErrCodeEncodeFailure)})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"code": response.NotifyAccepted, "message": response.Message(response.NotifyAccepted)})
}

// SendToUser godoc
// @Summary Push a notification to every session of a named user
// @Tags notifications
// @Accept json
// @Produce json
// @Param username path string true "Target username"
// @Param request body NotificationRequest true "Notification text"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /notifications/users/{username} [post]
func (h *NotificationHandler) SendToUser(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": response.ErrCodeBadPayload, "error": "username is required"})
		return
	}

	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": response.ErrCodeBadPayload, "error": response.Message(response.ErrCodeBadPayload)})
		return
	}

	principal, _ := middleware.PrincipalFromContext(c)
	if err := h.dispatcher.SendToUser(username, notify.Notification{User: principal, Notification: req.Notification}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": response.ErrCodeEncodeFailure, "error": response.Message(response.ErrCodeEncodeFailure)})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"code": response.NotifyAccepted, "message": response.Message(response.NotifyAccepted)})
}

// Sessions godoc
// @Summary Live session count and online users
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /sessions [get]
func (h *NotificationHandler) Sessions(c *gin.Context) {
	body := gin.H{
		"sessions": h.registry.Len(),
		"users":    h.registry.Usernames(),
	}

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if online, err := h.presence.OnlineUsers(ctx); err == nil {
			body["online"] = online
		}
	}

	c.JSON(http.StatusOK, body)
}
