package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Tenant is nil for platform
// operators.
type Principal struct {
	Agent  *domain.Agent
	Tenant *domain.Tenant
}

// TenantID returns the caller's tenant id or empty for platform operators.
func (p *Principal) TenantID() string {
	if p == nil || p.Tenant == nil {
		return ""
	}
	return p.Tenant.ID
}

// IsSuperAdmin reports whether the caller operates at platform level.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Agent != nil && p.Agent.Role == domain.RoleSuperAdmin
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens  *TokenManager
	agents  repository.AgentRepository
	tenants repository.TenantRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, agents repository.AgentRepository, tenants repository.TenantRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, agents: agents, tenants: tenants}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	agent, err := m.agents.GetByID(c.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("agent not found")
		}
		return apperrors.MapError(err)
	}
	if !agent.Active {
		return apperrors.NewUnauthorized("agent deactivated")
	}

	principal := &Principal{Agent: agent}

	if agent.TenantID != nil {
		tenant, err := m.tenants.GetByID(c.Context(), *agent.TenantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("tenant not found")
			}
			return apperrors.MapError(err)
		}
		if tenant.Status != domain.TenantStatusActive {
			return apperrors.NewForbidden("tenant is not active")
		}
		principal.Tenant = tenant
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
