package dto

import "github.com/asistanapp/panel-service/internal/domain"

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Role     domain.AgentRole `json:"role"`
}

// UpdateAgentRequest payload; absent fields stay unchanged.
type UpdateAgentRequest struct {
	Name   *string           `json:"name"`
	Role   *domain.AgentRole `json:"role"`
	Active *bool             `json:"active"`
}
