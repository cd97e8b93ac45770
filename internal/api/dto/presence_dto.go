package dto

import (
	"time"

	"github.com/asistanapp/panel-service/internal/domain"
)

// SetStateRequest payload. BREAK is entered via the break endpoints.
type SetStateRequest struct {
	State domain.AgentState `json:"state"`
}

// PresenceResponse is the live snapshot for one agent.
type PresenceResponse struct {
	AgentID               string            `json:"agent_id"`
	State                 domain.AgentState `json:"state"`
	Since                 time.Time         `json:"since"`
	BreakStartedAt        *time.Time        `json:"break_started_at,omitempty"`
	BreakUsedSeconds      int               `json:"break_used_seconds"`
	BreakAllowanceSeconds int               `json:"break_allowance_seconds"`
	BreakRemainingSeconds int               `json:"break_remaining_seconds"`
}
