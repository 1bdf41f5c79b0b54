package handler

import (
	"errors"

	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/internal/pkg/serverutils"
	"network-orchestrator-be/internal/service"
	internalWS "network-orchestrator-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// NotificationHandler serves the viewing-surface WebSocket and the
// notification history.
type NotificationHandler struct {
	service   *service.NotificationService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// tokenFrom prefers the query parameter, which is all browsers can send on
// a WebSocket handshake.
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// ServeWs upgrades GET /ws?context_id=... to a surface connection.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	contextID := c.Query("context_id")
	if contextID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "context_id is required"))
	}

	if h.jwtSecret != "" {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')"))
		}
		if _, err := serverutils.ParseToken(tokenStr, h.jwtSecret); err != nil {
			h.logger.Warn("NotificationHandler", "Invalid Token in WS Handshake", map[string]interface{}{
				"context_id": contextID,
			})
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"context_id": contextID})
		internalWS.ServeWs(h.hub, conn, contextID)
		h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"context_id": contextID})
	})(c)
}

// GetNotifications returns the notification history, optionally filtered by
// ?context_id=.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	contextID := c.Query("context_id")
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	notifications, total, err := h.service.GetNotifications(c.UserContext(), contextID, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrHistoryUnavailable) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return err
	}

	return c.JSON(fiber.Map{
		"data":  notifications,
		"total": total,
		"page":  offset/limit + 1,
		"limit": limit,
	})
}
