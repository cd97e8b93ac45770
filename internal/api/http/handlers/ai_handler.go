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

// AIHandler exposes the agent-facing assistant endpoints.
type AIHandler struct {
	service *service.AIService
}

// NewAIHandler constructs handler.
func NewAIHandler(aiService *service.AIService) *AIHandler {
	return &AIHandler{service: aiService}
}

// CreateSession POST /api/ai-chatbot/sessions.
func (h *AIHandler) CreateSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateAISessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	session, err := h.service.CreateSession(c.Context(), principal, service.AISessionCreateInput{
		Title:          req.Title,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": aiSessionResponse(session)})
}

// ListSessions GET /api/ai-chatbot/sessions.
func (h *AIHandler) ListSessions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	pageSize := parseInt(c.Query("page_size"), 20)
	offset := (parseInt(c.Query("page"), 1) - 1) * pageSize
	sessions, err := h.service.ListSessions(c.Context(), principal, c.QueryBool("include_archived"), pageSize, offset)
	if err != nil {
		return err
	}
	items := make([]dto.AISessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, aiSessionResponse(&sessions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSession GET /api/ai-chatbot/sessions/:id.
func (h *AIHandler) GetSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	session, transcript, err := h.service.GetSession(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	entries := make([]dto.TranscriptEntryResponse, 0, len(transcript))
	for i := range transcript {
		entries = append(entries, transcriptEntryResponse(&transcript[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"session":    aiSessionResponse(session),
		"transcript": entries,
	}})
}

// SendMessage POST /api/ai-chatbot/sessions/:id/messages.
func (h *AIHandler) SendMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AISendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, usage, err := h.service.SendMessage(c.Context(), principal, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AISendResponse{
		Entry: transcriptEntryResponse(entry),
		Usage: usage,
	}})
}

// ArchiveSession POST /api/ai-chatbot/sessions/:id/archive.
func (h *AIHandler) ArchiveSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	session, err := h.service.ArchiveSession(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": aiSessionResponse(session)})
}

// DeleteSession DELETE /api/ai-chatbot/sessions/:id.
func (h *AIHandler) DeleteSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteSession(c.Context(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusNoContent).Send(nil)
}

// Suggest POST /api/ai-chatbot/suggest.
func (h *AIHandler) Suggest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SuggestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ConversationID == "" {
		return apperrors.NewValidationError("conversation_id required", nil)
	}
	completion, err := h.service.SuggestReply(c.Context(), principal, req.ConversationID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestResponse{
		Suggestion: completion.Reply.Content,
		Usage:      completion.Usage,
	}})
}

func aiSessionResponse(session *domain.AISession) dto.AISessionResponse {
	return dto.AISessionResponse{
		ID:             session.ID,
		ConversationID: session.ConversationID,
		Title:          session.Title,
		Status:         session.Status,
		MessageCount:   session.MessageCount,
		CreatedAt:      session.CreatedAt,
		UpdatedAt:      session.UpdatedAt,
	}
}

func transcriptEntryResponse(entry *domain.AITranscriptEntry) dto.TranscriptEntryResponse {
	return dto.TranscriptEntryResponse{
		ID:        entry.ID,
		Role:      entry.Role,
		Content:   entry.Content,
		TokensIn:  entry.TokensIn,
		TokensOut: entry.TokensOut,
		CreatedAt: entry.CreatedAt,
	}
}
