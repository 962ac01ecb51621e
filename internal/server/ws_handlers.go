package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"parley/internal/models"
	"parley/internal/observability"
)

// registerEventStream mounts the live event feed. A connection must present
// a conversation-scoped ws key minted by /api/keys/ws/generate; the key is
// checked before the upgrade so rejections stay plain HTTP.
func (s *Server) registerEventStream(app *fiber.App) {
	app.Get("/ws/events/:conversationId", s.requireWsKey, websocket.New(s.handleEventSocket))
}

// requireWsKey gates the upgrade on a valid conversation key.
func (s *Server) requireWsKey(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	conversationID, err := parseID(c, "conversationId")
	if err != nil {
		return respondError(c, err)
	}
	key := c.Query("key")
	if key == "" || !s.keyVault.ValidateWsKey(c.UserContext(), conversationID, key) {
		observability.AuthRejections.WithLabelValues("ws_key").Inc()
		return respondError(c, models.NewInvalidError("Invalid or missing conversation key"))
	}

	c.Locals("conversationID", conversationID)
	return c.Next()
}

func (s *Server) handleEventSocket(conn *websocket.Conn) {
	conversationID, ok := conn.Locals("conversationID").(uint)
	if !ok {
		conn.Close()
		return
	}

	client, err := s.hub.Register(conversationID, conn)
	if err != nil {
		slog.Warn("event stream rejected", "conversation_id", conversationID, "error", err)
		conn.Close()
		return
	}

	observability.WebSocketConnectionsTotal.Inc()
	defer observability.WebSocketConnectionsTotal.Dec()

	go client.WritePump()
	client.ReadPump()
}

// publishEvent fans a domain event out through Redis. Publish failures are
// logged, never surfaced; the mutation already committed.
func (s *Server) publishEvent(c *fiber.Ctx, eventType string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishEvent(c.UserContext(), eventType, data); err != nil {
		slog.WarnContext(c.UserContext(), "event publish failed", "event_type", eventType, "error", err)
	}
}
