package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/dto"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/service"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// AgentsHandler manages operator account endpoints.
type AgentsHandler struct {
	service *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{service: agentService}
}

// Create POST /api/agents.
func (h *AgentsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	agent, err := h.service.Create(c.Context(), principal, service.AgentCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": agentResponse(agent)})
}

// List GET /api/agents.
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.AgentListFilter{
		ActiveOnly: c.QueryBool("active_only"),
		Limit:      parseInt(c.Query("page_size"), 50),
	}
	filter.Offset = (parseInt(c.Query("page"), 1) - 1) * filter.Limit
	if roleStr := c.Query("role"); roleStr != "" {
		for _, part := range strings.Split(roleStr, ",") {
			filter.Roles = append(filter.Roles, domain.AgentRole(strings.TrimSpace(part)))
		}
	}
	if term := c.Query("search"); term != "" {
		filter.SearchTerm = &term
	}

	agents, err := h.service.List(c.Context(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/agents/:id.
func (h *AgentsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	agent, err := h.service.Get(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(agent)})
}

// Update PATCH /api/agents/:id.
func (h *AgentsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	agent, err := h.service.Update(c.Context(), principal, c.Params("id"), service.AgentUpdateInput{
		Name:   req.Name,
		Role:   req.Role,
		Active: req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(agent)})
}
