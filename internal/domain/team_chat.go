package domain

import "time"

// ChatChannel is a staff-only discussion room inside a tenant.
type ChatChannel struct {
	ID        string
	TenantID  string
	Name      string
	Topic     string
	CreatedBy string
	CreatedAt time.Time
}

// ChatMessage is one team-chat entry. Mentions holds the agent IDs resolved
// from @name tokens at post time.
type ChatMessage struct {
	ID        string
	ChannelID string
	TenantID  string
	SenderID  string
	Body      string
	Mentions  []string
	CreatedAt time.Time
}
