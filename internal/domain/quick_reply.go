package domain

import "time"

// QuickReply is a canned response template insertable into a conversation.
// A nil OwnerID means the template is shared with the whole tenant.
type QuickReply struct {
	ID         string
	TenantID   string
	OwnerID    *string
	Category   string
	Title      string
	ShortCode  string
	Body       string
	UsageCount int64
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SharedWithTenant reports whether the template is visible to every agent.
func (q *QuickReply) SharedWithTenant() bool {
	return q.OwnerID == nil
}
