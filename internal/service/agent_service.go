package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// AgentService manages panel operator accounts within a tenant.
type AgentService struct {
	agents     repository.AgentRepository
	tenants    repository.TenantRepository
	bcryptCost int
}

// AgentDependencies bundles repositories for the agent service.
type AgentDependencies struct {
	AgentRepo  repository.AgentRepository
	TenantRepo repository.TenantRepository
}

// AgentCreateInput describes agent creation payload.
type AgentCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.AgentRole
}

// AgentUpdateInput carries optional agent changes.
type AgentUpdateInput struct {
	Name   *string
	Role   *domain.AgentRole
	Active *bool
}

// AgentListFilter mirrors the list endpoint query.
type AgentListFilter struct {
	Roles      []domain.AgentRole
	ActiveOnly bool
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewAgentService builds the service.
func NewAgentService(cfg config.Config, deps AgentDependencies) *AgentService {
	return &AgentService{
		agents:     deps.AgentRepo,
		tenants:    deps.TenantRepo,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Create registers an agent in the principal's tenant. Seats are capped by
// the tenant's MaxAgents.
func (s *AgentService) Create(ctx context.Context, principal *auth.Principal, input AgentCreateInput) (*domain.Agent, error) {
	tenant := principal.Tenant
	if tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 120 {
		return nil, apperrors.NewValidationError("name must be 1..120 characters", nil)
	}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if !looksLikeEmail(email) {
		return nil, apperrors.NewValidationError("invalid email address", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleAgent
	}
	if role != domain.RoleAgent && role != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("role must be AGENT or ADMIN", map[string]any{"role": role})
	}

	if _, err := s.agents.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	active, err := s.agents.CountActive(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	if active >= tenant.MaxAgents {
		return nil, apperrors.NewConflict("agent seat limit reached", map[string]any{
			"max_agents": tenant.MaxAgents,
		})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	tenantID := tenant.ID
	agent := &domain.Agent{
		TenantID:     &tenantID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// Get fetches an agent within the principal's scope.
func (s *AgentService) Get(ctx context.Context, principal *auth.Principal, id string) (*domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(principal, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// List returns agents of the principal's tenant.
func (s *AgentService) List(ctx context.Context, principal *auth.Principal, filter AgentListFilter) ([]domain.Agent, error) {
	repoFilter := repository.AgentFilter{
		Roles:      filter.Roles,
		ActiveOnly: filter.ActiveOnly,
		SearchTerm: filter.SearchTerm,
		Limit:      normalizeLimit(filter.Limit),
		Offset:     filter.Offset,
	}
	if principal.Tenant != nil {
		tenantID := principal.Tenant.ID
		repoFilter.TenantID = &tenantID
	}
	return s.agents.ListWithFilter(ctx, repoFilter)
}

// Update applies admin changes to an agent. Reactivating checks the seat cap;
// admins cannot deactivate themselves.
func (s *AgentService) Update(ctx context.Context, principal *auth.Principal, id string, input AgentUpdateInput) (*domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(principal, agent); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 120 {
			return nil, apperrors.NewValidationError("name must be 1..120 characters", nil)
		}
		agent.Name = name
	}
	if input.Role != nil {
		role := *input.Role
		if role != domain.RoleAgent && role != domain.RoleAdmin {
			return nil, apperrors.NewValidationError("role must be AGENT or ADMIN", map[string]any{"role": role})
		}
		if agent.Role == domain.RoleSuperAdmin {
			return nil, apperrors.NewForbidden("super-admin role cannot be changed here")
		}
		agent.Role = role
	}
	if input.Active != nil && *input.Active != agent.Active {
		if !*input.Active && principal.Agent != nil && principal.Agent.ID == agent.ID {
			return nil, apperrors.NewConflict("cannot deactivate yourself", nil)
		}
		if *input.Active && agent.TenantID != nil {
			tenant, err := s.tenants.GetByID(ctx, *agent.TenantID)
			if err != nil {
				return nil, err
			}
			active, err := s.agents.CountActive(ctx, tenant.ID)
			if err != nil {
				return nil, err
			}
			if active >= tenant.MaxAgents {
				return nil, apperrors.NewConflict("agent seat limit reached", map[string]any{
					"max_agents": tenant.MaxAgents,
				})
			}
		}
		agent.Active = *input.Active
	}

	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *AgentService) checkScope(principal *auth.Principal, agent *domain.Agent) error {
	if principal.IsSuperAdmin() {
		return nil
	}
	if principal.Tenant == nil || !agent.InTenant(principal.Tenant.ID) {
		return apperrors.NewNotFound("agent", nil)
	}
	return nil
}

func looksLikeEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	rest := email[at+1:]
	if !strings.Contains(rest, ".") || strings.Contains(rest, "@") {
		return false
	}
	return len(email) <= 254
}
