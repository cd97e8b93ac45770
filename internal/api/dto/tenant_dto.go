package dto

import (
	"time"

	"github.com/asistanapp/panel-service/internal/domain"
)

// CreateTenantRequest payload.
type CreateTenantRequest struct {
	Name                  string            `json:"name"`
	Slug                  string            `json:"slug"`
	Plan                  domain.TenantPlan `json:"plan"`
	Locale                string            `json:"locale"`
	WebhookURL            string            `json:"webhook_url"`
	MaxAgents             int               `json:"max_agents"`
	BreakAllowanceSeconds int               `json:"break_allowance_seconds"`
}

// UpdateTenantRequest payload; absent fields stay unchanged. The slug is
// immutable.
type UpdateTenantRequest struct {
	Name                  *string `json:"name"`
	Locale                *string `json:"locale"`
	WebhookURL            *string `json:"webhook_url"`
	MaxAgents             *int    `json:"max_agents"`
	BreakAllowanceSeconds *int    `json:"break_allowance_seconds"`
}

// PlanChangeRequest payload.
type PlanChangeRequest struct {
	Plan domain.TenantPlan `json:"plan"`
}

// ModuleOverrideRequest payload.
type ModuleOverrideRequest struct {
	Module  domain.ModuleKey `json:"module"`
	Enabled bool             `json:"enabled"`
}

// TenantResponse describes a customer organization.
type TenantResponse struct {
	ID                    string              `json:"id"`
	Name                  string              `json:"name"`
	Slug                  string              `json:"slug"`
	Plan                  domain.TenantPlan   `json:"plan"`
	Status                domain.TenantStatus `json:"status"`
	Locale                string              `json:"locale"`
	WebhookURL            string              `json:"webhook_url,omitempty"`
	Modules               []domain.ModuleKey  `json:"modules"`
	MaxAgents             int                 `json:"max_agents"`
	BreakAllowanceSeconds int                 `json:"break_allowance_seconds"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}
