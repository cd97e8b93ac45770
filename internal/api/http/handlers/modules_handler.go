package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// ModulesHandler reports the caller's effective module set so panels can
// hide disabled features.
type ModulesHandler struct{}

// NewModulesHandler constructs handler.
func NewModulesHandler() *ModulesHandler {
	return &ModulesHandler{}
}

// List GET /api/modules.
func (h *ModulesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var modules []domain.ModuleKey
	if principal.Tenant != nil {
		modules = principal.Tenant.EffectiveModules()
	} else if principal.IsSuperAdmin() {
		modules = domain.AllModules()
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"modules": modules}})
}
