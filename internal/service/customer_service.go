package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// CustomerService manages CRM records of end-users.
type CustomerService struct {
	customers repository.CustomerRepository
}

// CustomerDependencies bundles repositories for the customer service.
type CustomerDependencies struct {
	CustomerRepo repository.CustomerRepository
}

// CustomerCreateInput describes customer creation payload.
type CustomerCreateInput struct {
	Name        string
	Email       string
	Phone       string
	ExternalRef string
	Note        string
}

// CustomerUpdateInput carries optional customer changes.
type CustomerUpdateInput struct {
	Name  *string
	Email *string
	Phone *string
	Note  *string
}

// CustomerListFilter mirrors the list endpoint query.
type CustomerListFilter struct {
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewCustomerService builds the service.
func NewCustomerService(deps CustomerDependencies) *CustomerService {
	return &CustomerService{customers: deps.CustomerRepo}
}

// Create registers a customer record in the principal's tenant.
func (s *CustomerService) Create(ctx context.Context, principal *auth.Principal, input CustomerCreateInput) (*domain.Customer, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 120 {
		return nil, apperrors.NewValidationError("name must be 1..120 characters", nil)
	}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email != "" {
		if !looksLikeEmail(email) {
			return nil, apperrors.NewValidationError("invalid email address", nil)
		}
		if _, err := s.customers.GetByEmail(ctx, principal.Tenant.ID, email); err == nil {
			return nil, apperrors.NewConflict("customer email already exists", nil)
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	customer := &domain.Customer{
		TenantID:    principal.Tenant.ID,
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(input.Phone),
		ExternalRef: strings.TrimSpace(input.ExternalRef),
		Note:        input.Note,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Get fetches a customer within the principal's tenant.
func (s *CustomerService) Get(ctx context.Context, principal *auth.Principal, id string) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(principal, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// List searches customers of the principal's tenant by name or email.
func (s *CustomerService) List(ctx context.Context, principal *auth.Principal, filter CustomerListFilter) ([]domain.Customer, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	return s.customers.ListWithFilter(ctx, repository.CustomerFilter{
		TenantID:   principal.Tenant.ID,
		SearchTerm: filter.SearchTerm,
		Limit:      normalizeLimit(filter.Limit),
		Offset:     filter.Offset,
	})
}

// Update applies profile changes to a customer record.
func (s *CustomerService) Update(ctx context.Context, principal *auth.Principal, id string, input CustomerUpdateInput) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(principal, customer); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 120 {
			return nil, apperrors.NewValidationError("name must be 1..120 characters", nil)
		}
		customer.Name = name
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email != "" && !looksLikeEmail(email) {
			return nil, apperrors.NewValidationError("invalid email address", nil)
		}
		if email != "" && email != customer.Email {
			if existing, err := s.customers.GetByEmail(ctx, customer.TenantID, email); err == nil && existing.ID != customer.ID {
				return nil, apperrors.NewConflict("customer email already exists", nil)
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
		}
		customer.Email = email
	}
	if input.Phone != nil {
		customer.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Note != nil {
		customer.Note = *input.Note
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) checkScope(principal *auth.Principal, customer *domain.Customer) error {
	if principal.IsSuperAdmin() {
		return nil
	}
	if principal.Tenant == nil || customer.TenantID != principal.Tenant.ID {
		return apperrors.NewNotFound("customer", nil)
	}
	return nil
}
