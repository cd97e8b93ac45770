package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/dto"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/service"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// TeamChatHandler manages staff-only channel endpoints.
type TeamChatHandler struct {
	service *service.TeamChatService
}

// NewTeamChatHandler constructs handler.
func NewTeamChatHandler(teamChatService *service.TeamChatService) *TeamChatHandler {
	return &TeamChatHandler{service: teamChatService}
}

// CreateChannel POST /api/team-chat/channels.
func (h *TeamChatHandler) CreateChannel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	channel, err := h.service.CreateChannel(c.Context(), principal, service.ChannelCreateInput{
		Name:  req.Name,
		Topic: req.Topic,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": channelResponse(channel)})
}

// ListChannels GET /api/team-chat/channels.
func (h *TeamChatHandler) ListChannels(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	channels, err := h.service.ListChannels(c.Context(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.ChannelResponse, 0, len(channels))
	for i := range channels {
		items = append(items, channelResponse(&channels[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteChannel DELETE /api/team-chat/channels/:id.
func (h *TeamChatHandler) DeleteChannel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteChannel(c.Context(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusNoContent).Send(nil)
}

// History GET /api/team-chat/channels/:id/messages.
func (h *TeamChatHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	before := parseTime(c.Query("before"))
	limit := parseInt(c.Query("limit"), 50)
	messages, err := h.service.History(c.Context(), principal, c.Params("id"), before, limit)
	if err != nil {
		return err
	}
	items := make([]dto.ChatMessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, chatMessageResponse(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// PostMessage POST /api/team-chat/channels/:id/messages.
func (h *TeamChatHandler) PostMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PostChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.service.PostMessage(c.Context(), principal, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": chatMessageResponse(msg)})
}

// Members GET /api/team-chat/channels/:id/members.
func (h *TeamChatHandler) Members(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	members, err := h.service.Members(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ChannelMemberResponse, 0, len(members))
	for i := range members {
		items = append(items, dto.ChannelMemberResponse{
			ID:     members[i].ID,
			Name:   members[i].Name,
			Email:  members[i].Email,
			Active: members[i].Active,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Leave POST /api/team-chat/channels/:id/leave.
func (h *TeamChatHandler) Leave(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Leave(c.Context(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusNoContent).Send(nil)
}

func channelResponse(channel *domain.ChatChannel) dto.ChannelResponse {
	return dto.ChannelResponse{
		ID:        channel.ID,
		Name:      channel.Name,
		Topic:     channel.Topic,
		CreatedBy: channel.CreatedBy,
		CreatedAt: channel.CreatedAt,
	}
}

func chatMessageResponse(msg *domain.ChatMessage) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		Mentions:  msg.Mentions,
		CreatedAt: msg.CreatedAt,
	}
}
