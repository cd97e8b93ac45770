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

// QuickRepliesHandler manages canned-response endpoints.
type QuickRepliesHandler struct {
	service *service.QuickReplyService
}

// NewQuickRepliesHandler constructs handler.
func NewQuickRepliesHandler(quickReplyService *service.QuickReplyService) *QuickRepliesHandler {
	return &QuickRepliesHandler{service: quickReplyService}
}

// Create POST /api/quick-actions.
func (h *QuickRepliesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateQuickReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.service.Create(c.Context(), principal, service.QuickReplyCreateInput{
		Title:     req.Title,
		Body:      req.Body,
		Category:  req.Category,
		ShortCode: req.ShortCode,
		Shared:    req.Shared,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": quickReplyResponse(reply)})
}

// List GET /api/quick-actions.
func (h *QuickRepliesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.QuickReplyListFilter{
		ActiveOnly: c.QueryBool("active_only"),
		Limit:      parseInt(c.Query("page_size"), 50),
	}
	filter.Offset = (parseInt(c.Query("page"), 1) - 1) * filter.Limit
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if term := c.Query("search"); term != "" {
		filter.SearchTerm = &term
	}

	replies, err := h.service.List(c.Context(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.QuickReplyResponse, 0, len(replies))
	for i := range replies {
		items = append(items, quickReplyResponse(&replies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/quick-actions/:id.
func (h *QuickRepliesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	reply, err := h.service.Get(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": quickReplyResponse(reply)})
}

// Update PATCH /api/quick-actions/:id.
func (h *QuickRepliesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateQuickReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reply, err := h.service.Update(c.Context(), principal, c.Params("id"), service.QuickReplyUpdateInput{
		Title:     req.Title,
		Body:      req.Body,
		Category:  req.Category,
		ShortCode: req.ShortCode,
		Active:    req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": quickReplyResponse(reply)})
}

// Delete DELETE /api/quick-actions/:id.
func (h *QuickRepliesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusNoContent).Send(nil)
}

// Render POST /api/quick-actions/:id/render.
func (h *QuickRepliesHandler) Render(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RenderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ConversationID == "" {
		return apperrors.NewValidationError("conversation_id required", nil)
	}

	body, err := h.service.Render(c.Context(), principal, c.Params("id"), req.ConversationID)
	if err != nil {
		return err
	}
	if err := h.service.RecordUsage(c.Context(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RenderResponse{Body: body}})
}

func quickReplyResponse(reply *domain.QuickReply) dto.QuickReplyResponse {
	return dto.QuickReplyResponse{
		ID:         reply.ID,
		OwnerID:    reply.OwnerID,
		Category:   reply.Category,
		Title:      reply.Title,
		ShortCode:  reply.ShortCode,
		Body:       reply.Body,
		UsageCount: reply.UsageCount,
		Active:     reply.Active,
		CreatedAt:  reply.CreatedAt,
		UpdatedAt:  reply.UpdatedAt,
	}
}
