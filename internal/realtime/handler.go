package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/auth"
)

const readDeadline = 60 * time.Second

// MembershipChecker reports whether an agent may listen to a chat channel.
type MembershipChecker func(ctx context.Context, tenantID, agentID, channelID string) (bool, error)

// Handler upgrades panel connections and drives the per-socket loops.
type Handler struct {
	hub     *Hub
	tokens  *auth.TokenManager
	canJoin MembershipChecker
	logger  *zap.Logger
}

// NewHandler constructs the websocket handler.
func NewHandler(hub *Hub, tokens *auth.TokenManager, canJoin MembershipChecker, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, tokens: tokens, canJoin: canJoin, logger: logger}
}

// Upgrade validates the token from the query string and upgrades to a
// websocket connection. Panels cannot set headers on socket requests.
func (h *Handler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": fiber.Map{"code": "UNAUTHORIZED", "message": "token required"},
		})
	}

	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": fiber.Map{"code": "UNAUTHORIZED", "message": "invalid token"},
		})
	}
	if claims.TenantID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": fiber.Map{"code": "FORBIDDEN", "message": "tenant context required"},
		})
	}

	c.Locals("agent_id", claims.Subject)
	c.Locals("ws_tenant_id", *claims.TenantID)
	return websocket.New(h.handleConnection)(c)
}

type channelFrame struct {
	ChannelID string `json:"channel_id"`
}

func (h *Handler) handleConnection(c *websocket.Conn) {
	agentID, _ := c.Locals("agent_id").(string)
	tenantID, _ := c.Locals("ws_tenant_id").(string)

	client := &Client{
		Conn:     c,
		AgentID:  agentID,
		TenantID: tenantID,
		Send:     make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader loop
	_ = c.SetReadDeadline(time.Now().Add(readDeadline))
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}
		_ = c.SetReadDeadline(time.Now().Add(readDeadline))

		var frame struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case FramePing:
			h.hub.SendToClient(client, Frame{Type: FramePong})

		case FrameSubscribe:
			var sub channelFrame
			if err := json.Unmarshal(frame.Data, &sub); err != nil || sub.ChannelID == "" {
				continue
			}
			ok, err := h.canJoin(context.Background(), tenantID, agentID, sub.ChannelID)
			if err != nil {
				h.logger.Warn("channel membership check failed",
					zap.String("agent_id", agentID),
					zap.String("channel_id", sub.ChannelID),
					zap.Error(err),
				)
				continue
			}
			if ok {
				client.Subscribe(sub.ChannelID)
			}

		case FrameUnsubscribe:
			var sub channelFrame
			if err := json.Unmarshal(frame.Data, &sub); err != nil || sub.ChannelID == "" {
				continue
			}
			client.Unsubscribe(sub.ChannelID)

		case FrameTyping:
			var typing channelFrame
			if err := json.Unmarshal(frame.Data, &typing); err != nil || typing.ChannelID == "" {
				continue
			}
			if !client.SubscribedTo(typing.ChannelID) {
				continue
			}
			h.hub.BroadcastToChannel(tenantID, typing.ChannelID, agentID, Frame{
				Type: FrameChatTyping,
				Data: fiber.Map{"channel_id": typing.ChannelID, "agent_id": agentID},
			})

		default:
			h.logger.Debug("unknown socket frame", zap.String("type", frame.Type), zap.String("agent_id", agentID))
		}
	}
}
