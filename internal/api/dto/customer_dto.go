package dto

import "time"

// CreateCustomerRequest payload.
type CreateCustomerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ExternalRef string `json:"external_ref"`
	Note        string `json:"note"`
}

// UpdateCustomerRequest payload; absent fields stay unchanged.
type UpdateCustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Note  *string `json:"note"`
}

// CustomerResponse describes a CRM record.
type CustomerResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	ExternalRef string     `json:"external_ref"`
	Note        string     `json:"note"`
	LastSeenAt  *time.Time `json:"last_seen_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
