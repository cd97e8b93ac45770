package dto

import "time"

// CreateQuickReplyRequest payload.
type CreateQuickReplyRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Category  string `json:"category"`
	ShortCode string `json:"short_code"`
	Shared    bool   `json:"shared"`
}

// UpdateQuickReplyRequest payload; absent fields stay unchanged.
type UpdateQuickReplyRequest struct {
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	Category  *string `json:"category"`
	ShortCode *string `json:"short_code"`
	Active    *bool   `json:"active"`
}

// QuickReplyResponse describes a canned template.
type QuickReplyResponse struct {
	ID         string    `json:"id"`
	OwnerID    *string   `json:"owner_id"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	ShortCode  string    `json:"short_code"`
	Body       string    `json:"body"`
	UsageCount int64     `json:"usage_count"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RenderRequest payload.
type RenderRequest struct {
	ConversationID string `json:"conversation_id"`
}

// RenderResponse carries the placeholder-filled template body.
type RenderResponse struct {
	Body string `json:"body"`
}
