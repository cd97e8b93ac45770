package domain

import "time"

// AgentState enumerates presence states shown in the panel.
type AgentState string

const (
	StateOnline  AgentState = "ONLINE"
	StateAway    AgentState = "AWAY"
	StateBreak   AgentState = "BREAK"
	StateOffline AgentState = "OFFLINE"
)

// ValidAgentState reports whether s is a known presence state.
func ValidAgentState(s AgentState) bool {
	switch s {
	case StateOnline, StateAway, StateBreak, StateOffline:
		return true
	}
	return false
}

// AgentPresence is the live presence snapshot for one agent, including the
// break ledger for the current UTC day.
type AgentPresence struct {
	AgentID               string
	State                 AgentState
	Since                 time.Time
	BreakStartedAt        *time.Time
	BreakUsedSeconds      int
	BreakAllowanceSeconds int
}

// BreakRemainingSeconds returns how much break time is left today. The ledger
// is capped on accumulation, so the result is never negative.
func (p *AgentPresence) BreakRemainingSeconds() int {
	remaining := p.BreakAllowanceSeconds - p.BreakUsedSeconds
	if remaining < 0 {
		return 0
	}
	return remaining
}
