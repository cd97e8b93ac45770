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

// AuthHandler exposes staff authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	agent, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"agent": agentResponse(agent),
		"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
	}})
}

// Me GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	payload := fiber.Map{"agent": agentResponse(principal.Agent)}
	if principal.Tenant != nil {
		payload["tenant"] = tenantResponse(principal.Tenant)
	}
	return c.JSON(fiber.Map{"data": payload})
}

// ChangePassword POST /api/auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.ChangePassword(c.Context(), principal.Agent.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}

// Logout POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.Context(), principal.Agent.ID); err != nil {
		return err
	}
	return c.Status(http.StatusNoContent).Send(nil)
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:        agent.ID,
		TenantID:  agent.TenantID,
		Name:      agent.Name,
		Email:     agent.Email,
		Role:      agent.Role,
		Active:    agent.Active,
		CreatedAt: agent.CreatedAt,
	}
}
