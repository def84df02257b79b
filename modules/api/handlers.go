package api

import (
	"encoding/json"

	chat "github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/broadcast"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// setupRoutes configures all HTTP and WebSocket routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := m.app.Group("/api/v1")
	api.Get("/history", m.getPublicHistory)
	api.Get("/history/:user1/:user2", m.getPrivateHistory)
	api.Get("/users", m.getOnlineUsers)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// getPublicHistory handles GET /api/v1/history.
func (m *APIModule) getPublicHistory(c *fiber.Ctx) error {
	messages, err := m.relayPort.PublicHistory(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "history_failed",
			Message: "Failed to get public history",
		})
	}

	return c.JSON(HistoryResponse{
		Messages: messages,
		Total:    len(messages),
	})
}

// getPrivateHistory handles GET /api/v1/history/:user1/:user2. The pair is
// order-independent: /history/bob/alice and /history/alice/bob return the
// same conversation.
func (m *APIModule) getPrivateHistory(c *fiber.Ctx) error {
	user1 := c.Params("user1")
	user2 := c.Params("user2")

	messages, err := m.relayPort.PrivateHistory(c.UserContext(), user1, user2)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Both usernames are required",
		})
	}

	return c.JSON(HistoryResponse{
		Messages: messages,
		Total:    len(messages),
	})
}

// getOnlineUsers handles GET /api/v1/users.
func (m *APIModule) getOnlineUsers(c *fiber.Ctx) error {
	users, err := m.relayPort.OnlineUsers(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "users_failed",
			Message: "Failed to get online users",
		})
	}

	return c.JSON(UsersResponse{
		Users: users,
		Total: len(users),
	})
}

// handleWebSocket handles WebSocket connections at /ws. Each connection gets
// an opaque client ID; the username only becomes known when the client sends
// its JOIN event.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	clientID := uuid.New().String()
	client := broadcast.NewClient(clientID, c)

	m.hub.Register(client)
	defer func() {
		m.router.HandleDisconnect(client)
		m.hub.Unregister(client)
		m.logger.Info("WebSocket client disconnected", "clientID", clientID)
	}()

	m.logger.Info("WebSocket client connected", "clientID", clientID)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("WebSocket read error", "clientID", clientID, "error", err)
			}
			break
		}

		var evt chat.Event
		if err := json.Unmarshal(msgBytes, &evt); err != nil {
			m.sendError(c, "Invalid message format")
			continue
		}

		switch evt.Type {
		case chat.EventChat:
			if err := m.router.HandleChatIntent(evt); err != nil {
				m.sendError(c, "Failed to relay message")
			}
		case chat.EventJoin:
			m.router.HandleJoinIntent(evt, client)
		case chat.EventLog:
			m.router.HandleLogIntent(evt)
		default:
			m.sendError(c, "Unknown event type: "+string(evt.Type))
		}
	}
}

// sendError sends an error frame to a WebSocket connection.
func (m *APIModule) sendError(c *websocket.Conn, message string) {
	if err := c.WriteJSON(wsError{Type: "ERROR", Error: message}); err != nil {
		m.logger.Warn("Failed to send error frame", "error", err)
	}
}
