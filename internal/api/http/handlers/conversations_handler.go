package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/dto"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/service"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// ConversationsHandler manages support-thread endpoints.
type ConversationsHandler struct {
	service *service.ConversationService
}

// NewConversationsHandler constructs handler.
func NewConversationsHandler(conversationService *service.ConversationService) *ConversationsHandler {
	return &ConversationsHandler{service: conversationService}
}

// Create POST /api/conversations.
func (h *ConversationsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomerID == "" {
		return apperrors.NewValidationError("customer_id required", nil)
	}

	conv, err := h.service.Create(c.Context(), principal, service.ConversationCreateInput{
		CustomerID:   req.CustomerID,
		Channel:      req.Channel,
		Subject:      req.Subject,
		Priority:     req.Priority,
		Tags:         req.Tags,
		FirstMessage: req.FirstMessage,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": conversationSummary(conv)})
}

// List GET /api/conversations.
func (h *ConversationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseConversationQuery(c)
	conversations, counts, err := h.service.List(c.Context(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ConversationSummary, 0, len(conversations))
	for i := range conversations {
		items = append(items, conversationSummary(&conversations[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": fiber.Map{"status_counts": counts},
	})
}

// Get GET /api/conversations/:id.
func (h *ConversationsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	conv, messages, err := h.service.Get(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationDetail(conv, messages)})
}

// AddMessage POST /api/conversations/:id/messages.
func (h *ConversationsHandler) AddMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.service.AddMessage(c.Context(), principal, c.Params("id"), service.MessageInput{
		Kind:        req.Kind,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// ChangeStatus POST /api/conversations/:id/status.
func (h *ConversationsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	conv, err := h.service.ChangeStatus(c.Context(), principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv)})
}

// ChangePriority POST /api/conversations/:id/priority.
func (h *ConversationsHandler) ChangePriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PriorityChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	conv, err := h.service.ChangePriority(c.Context(), principal, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv)})
}

// Assign POST /api/conversations/:id/assign.
func (h *ConversationsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	var target *string
	if req.AgentID != "" {
		target = &req.AgentID
	}
	conv, err := h.service.Assign(c.Context(), principal, c.Params("id"), target)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv)})
}

// Unassign DELETE /api/conversations/:id/assign.
func (h *ConversationsHandler) Unassign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	conv, err := h.service.Unassign(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv)})
}

// UpdateTags POST /api/conversations/:id/tags.
func (h *ConversationsHandler) UpdateTags(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TagsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	conv, err := h.service.UpdateTags(c.Context(), principal, c.Params("id"), service.TagUpdateInput{
		Add:    req.Add,
		Remove: req.Remove,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv)})
}

func parseConversationQuery(c *fiber.Ctx) service.ConversationListFilter {
	filter := service.ConversationListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ConversationStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.ConversationPriority(strings.TrimSpace(part)))
		}
	}
	if channelStr := c.Query("channel"); channelStr != "" {
		for _, part := range strings.Split(channelStr, ",") {
			filter.Channels = append(filter.Channels, domain.ConversationChannel(strings.TrimSpace(part)))
		}
	}
	filter.Assignee = c.Query("assignee")
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}
	if tag := c.Query("tag"); tag != "" {
		filter.Tag = &tag
	}
	if term := c.Query("search"); term != "" {
		filter.SearchTerm = &term
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func conversationSummary(conv *domain.Conversation) dto.ConversationSummary {
	return dto.ConversationSummary{
		ID:            conv.ID,
		Reference:     conv.Reference,
		CustomerID:    conv.CustomerID,
		AssigneeID:    conv.AssigneeID,
		Channel:       conv.Channel,
		Subject:       conv.Subject,
		Status:        conv.Status,
		Priority:      conv.Priority,
		Tags:          conv.Tags,
		LastMessageAt: conv.LastMessageAt,
		CreatedAt:     conv.CreatedAt,
		ClosedAt:      conv.ClosedAt,
	}
}

func conversationDetail(conv *domain.Conversation, messages []domain.ConversationMessage) dto.ConversationDetailResponse {
	msgs := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		msgs = append(msgs, messageResponse(&messages[i]))
	}
	return dto.ConversationDetailResponse{
		ConversationSummary: conversationSummary(conv),
		Messages:            msgs,
	}
}

func messageResponse(msg *domain.ConversationMessage) dto.MessageResponse {
	return dto.MessageResponse{
		ID:          msg.ID,
		AuthorType:  msg.AuthorType,
		AuthorID:    msg.AuthorID,
		Kind:        msg.Kind,
		Body:        msg.Body,
		Attachments: msg.Attachments,
		CreatedAt:   msg.CreatedAt,
	}
}
