package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/dto"
	"github.com/asistanapp/panel-service/internal/service"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// IngestHandler receives channel-connector deliveries. The endpoint is
// unauthenticated; connectors identify the tenant by id or slug.
type IngestHandler struct {
	service *service.ConversationService
}

// NewIngestHandler constructs handler.
func NewIngestHandler(conversationService *service.ConversationService) *IngestHandler {
	return &IngestHandler{service: conversationService}
}

// IngestMessage POST /api/ingest/messages.
func (h *IngestHandler) IngestMessage(c *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	conv, msg, err := h.service.IngestMessage(c.Context(), service.IngestInput{
		TenantID:            req.TenantID,
		TenantSlug:          req.TenantSlug,
		Reference:           req.Reference,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerExternalRef: req.CustomerExternalRef,
		Channel:             req.Channel,
		Subject:             req.Subject,
		Body:                req.Body,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"conversation": conversationSummary(conv),
		"message":      messageResponse(msg),
	}})
}
