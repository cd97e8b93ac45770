package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// RequireRole ensures the principal has one of the allowed roles. With no
// arguments any authenticated caller passes.
func RequireRole(allowed ...domain.AgentRole) fiber.Handler {
	allowedSet := make(map[domain.AgentRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Agent == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Agent.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireTenant ensures the caller is scoped to a tenant. Platform operators
// without a tenant are rejected.
func RequireTenant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Agent == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.Tenant == nil {
			return apperrors.NewForbidden("tenant context required")
		}
		return c.Next()
	}
}
