package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/i18n"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,40}$`)

// TenantService manages customer organizations. All operations are
// super-admin scope; the router enforces the role.
type TenantService struct {
	tenants       repository.TenantRepository
	defaultLocale string
}

// TenantDependencies bundles repositories for the tenant service.
type TenantDependencies struct {
	TenantRepo repository.TenantRepository
}

// TenantCreateInput describes tenant creation payload.
type TenantCreateInput struct {
	Name                  string
	Slug                  string
	Plan                  domain.TenantPlan
	Locale                string
	WebhookURL            string
	MaxAgents             int
	BreakAllowanceSeconds int
}

// TenantUpdateInput carries optional profile changes.
type TenantUpdateInput struct {
	Name                  *string
	Locale                *string
	WebhookURL            *string
	MaxAgents             *int
	BreakAllowanceSeconds *int
}

// TenantListFilter mirrors the list endpoint query.
type TenantListFilter struct {
	Statuses   []domain.TenantStatus
	Plans      []domain.TenantPlan
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewTenantService builds the service.
func NewTenantService(cfg config.Config, deps TenantDependencies) *TenantService {
	return &TenantService{
		tenants:       deps.TenantRepo,
		defaultLocale: cfg.App.DefaultLocale,
	}
}

// Create registers a new tenant. The slug is immutable afterwards.
func (s *TenantService) Create(ctx context.Context, input TenantCreateInput) (*domain.Tenant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 120 {
		return nil, apperrors.NewValidationError("name must be 1..120 characters", nil)
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, apperrors.NewValidationError("slug must be 3..40 lowercase letters, digits or dashes", nil)
	}
	if _, err := s.tenants.GetBySlug(ctx, slug); err == nil {
		return nil, apperrors.NewConflict("slug already in use", map[string]any{"slug": slug})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	plan := input.Plan
	if plan == "" {
		plan = domain.PlanTrial
	}
	if !validPlan(plan) {
		return nil, apperrors.NewValidationError("unknown plan", map[string]any{"plan": plan})
	}
	locale := input.Locale
	if locale == "" {
		locale = s.defaultLocale
	}
	if !i18n.Supported(locale) {
		return nil, apperrors.NewValidationError("unsupported locale", map[string]any{"locale": locale})
	}
	maxAgents := input.MaxAgents
	if maxAgents <= 0 {
		maxAgents = 10
	}

	tenant := &domain.Tenant{
		Name:                  name,
		Slug:                  slug,
		Plan:                  plan,
		Status:                domain.TenantStatusActive,
		Locale:                locale,
		WebhookURL:            strings.TrimSpace(input.WebhookURL),
		ModuleOverrides:       map[domain.ModuleKey]bool{},
		MaxAgents:             maxAgents,
		BreakAllowanceSeconds: input.BreakAllowanceSeconds,
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Get fetches one tenant.
func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

// List returns tenants matching the filter.
func (s *TenantService) List(ctx context.Context, filter TenantListFilter) ([]domain.Tenant, error) {
	return s.tenants.ListWithFilter(ctx, repository.TenantFilter{
		Statuses:   filter.Statuses,
		Plans:      filter.Plans,
		SearchTerm: filter.SearchTerm,
		Limit:      normalizeLimit(filter.Limit),
		Offset:     filter.Offset,
	})
}

// UpdateProfile applies profile changes. The slug never changes.
func (s *TenantService) UpdateProfile(ctx context.Context, id string, input TenantUpdateInput) (*domain.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 120 {
			return nil, apperrors.NewValidationError("name must be 1..120 characters", nil)
		}
		tenant.Name = name
	}
	if input.Locale != nil {
		if !i18n.Supported(*input.Locale) {
			return nil, apperrors.NewValidationError("unsupported locale", map[string]any{"locale": *input.Locale})
		}
		tenant.Locale = *input.Locale
	}
	if input.WebhookURL != nil {
		tenant.WebhookURL = strings.TrimSpace(*input.WebhookURL)
	}
	if input.MaxAgents != nil {
		if *input.MaxAgents < 1 {
			return nil, apperrors.NewValidationError("max agents must be at least 1", nil)
		}
		tenant.MaxAgents = *input.MaxAgents
	}
	if input.BreakAllowanceSeconds != nil {
		if *input.BreakAllowanceSeconds < 0 {
			return nil, apperrors.NewValidationError("break allowance cannot be negative", nil)
		}
		tenant.BreakAllowanceSeconds = *input.BreakAllowanceSeconds
	}
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// ChangePlan switches the subscription tier. Overrides are kept as-is; the
// effective module set is recomputed from the new plan.
func (s *TenantService) ChangePlan(ctx context.Context, id string, plan domain.TenantPlan) (*domain.Tenant, error) {
	if !validPlan(plan) {
		return nil, apperrors.NewValidationError("unknown plan", map[string]any{"plan": plan})
	}
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.Plan = plan
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// SetModuleOverride forces a module on or off for one tenant. Core modules
// cannot be disabled.
func (s *TenantService) SetModuleOverride(ctx context.Context, id string, key domain.ModuleKey, enabled bool) (*domain.Tenant, error) {
	if !domain.ValidModuleKey(key) {
		return nil, apperrors.NewValidationError("unknown module", map[string]any{"module": key})
	}
	if !enabled {
		for _, core := range domain.CoreModules {
			if key == core {
				return nil, apperrors.NewValidationError("core modules cannot be disabled", map[string]any{"module": key})
			}
		}
	}

	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.ModuleOverrides == nil {
		tenant.ModuleOverrides = map[domain.ModuleKey]bool{}
	}
	tenant.ModuleOverrides[key] = enabled
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Suspend pauses an active tenant. Its agents stop authenticating.
func (s *TenantService) Suspend(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.changeStatus(ctx, id, domain.TenantStatusActive, domain.TenantStatusSuspended)
}

// Reactivate resumes a suspended tenant.
func (s *TenantService) Reactivate(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.changeStatus(ctx, id, domain.TenantStatusSuspended, domain.TenantStatusActive)
}

// Cancel terminates a tenant. Cancellation is terminal.
func (s *TenantService) Cancel(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.Status == domain.TenantStatusCancelled {
		return nil, apperrors.NewConflict("tenant is already cancelled", nil)
	}
	tenant.Status = domain.TenantStatusCancelled
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *TenantService) changeStatus(ctx context.Context, id string, from, to domain.TenantStatus) (*domain.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.Status != from {
		return nil, apperrors.NewConflict("invalid tenant status change", map[string]any{
			"status": tenant.Status,
		})
	}
	tenant.Status = to
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func validPlan(plan domain.TenantPlan) bool {
	switch plan {
	case domain.PlanTrial, domain.PlanStarter, domain.PlanGrowth, domain.PlanEnterprise:
		return true
	}
	return false
}
