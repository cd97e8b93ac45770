package domain

import "time"

// AgentRole enumerates panel operator roles.
type AgentRole string

const (
	RoleAgent      AgentRole = "AGENT"
	RoleAdmin      AgentRole = "ADMIN"
	RoleSuperAdmin AgentRole = "SUPER_ADMIN"
)

// Agent models a support operator. Super-admins are platform staff and carry
// no tenant.
type Agent struct {
	ID           string
	TenantID     *string
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InTenant reports whether the agent belongs to the given tenant.
func (a *Agent) InTenant(tenantID string) bool {
	return a.TenantID != nil && *a.TenantID == tenantID
}
