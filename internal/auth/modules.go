package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// RequireModule rejects tenant-scoped callers whose plan does not include the
// module. Platform operators bypass the check.
func RequireModule(key domain.ModuleKey) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Agent == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.Tenant == nil {
			if principal.IsSuperAdmin() {
				return c.Next()
			}
			return apperrors.NewForbidden("tenant context required")
		}
		if !principal.Tenant.ModuleEnabled(key) {
			return apperrors.NewModuleDisabled(string(key))
		}
		return c.Next()
	}
}
