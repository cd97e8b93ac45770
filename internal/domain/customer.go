package domain

import "time"

// Customer is a CRM record for an end-user reaching support. Customers do not
// authenticate against the panel; their traffic arrives via channel ingest.
type Customer struct {
	ID          string
	TenantID    string
	Name        string
	Email       string
	Phone       string
	ExternalRef string
	Note        string
	LastSeenAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
