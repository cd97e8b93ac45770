package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/dto"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/service"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// PresenceHandler exposes agent status and break endpoints.
type PresenceHandler struct {
	service *service.PresenceService
}

// NewPresenceHandler constructs handler.
func NewPresenceHandler(presenceService *service.PresenceService) *PresenceHandler {
	return &PresenceHandler{service: presenceService}
}

// Snapshot GET /api/agent-status.
func (h *PresenceHandler) Snapshot(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	presence, err := h.service.Snapshot(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": presenceResponse(presence)})
}

// SetState POST /api/agent-status.
func (h *PresenceHandler) SetState(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetStateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	presence, err := h.service.SetState(c.Context(), principal, req.State)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": presenceResponse(presence)})
}

// StartBreak POST /api/agent-status/break/start.
func (h *PresenceHandler) StartBreak(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	presence, err := h.service.StartBreak(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": presenceResponse(presence)})
}

// EndBreak POST /api/agent-status/break/end.
func (h *PresenceHandler) EndBreak(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	presence, err := h.service.EndBreak(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": presenceResponse(presence)})
}

// Heartbeat POST /api/agent-status/heartbeat.
func (h *PresenceHandler) Heartbeat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	presence, err := h.service.Heartbeat(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": presenceResponse(presence)})
}

// Team GET /api/agent-status/team.
func (h *PresenceHandler) Team(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	team, err := h.service.TeamSnapshot(c.Context(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.PresenceResponse, 0, len(team))
	for i := range team {
		items = append(items, presenceResponse(&team[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func presenceResponse(p *domain.AgentPresence) dto.PresenceResponse {
	return dto.PresenceResponse{
		AgentID:               p.AgentID,
		State:                 p.State,
		Since:                 p.Since,
		BreakStartedAt:        p.BreakStartedAt,
		BreakUsedSeconds:      p.BreakUsedSeconds,
		BreakAllowanceSeconds: p.BreakAllowanceSeconds,
		BreakRemainingSeconds: p.BreakRemainingSeconds(),
	}
}
