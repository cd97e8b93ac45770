package dto

import (
	"time"

	"github.com/asistanapp/panel-service/internal/domain"
)

// CreateConversationRequest payload.
type CreateConversationRequest struct {
	CustomerID   string                      `json:"customer_id"`
	Channel      domain.ConversationChannel  `json:"channel"`
	Subject      string                      `json:"subject"`
	Priority     domain.ConversationPriority `json:"priority"`
	Tags         []string                    `json:"tags"`
	FirstMessage string                      `json:"first_message"`
}

// ConversationSummary response row for listings.
type ConversationSummary struct {
	ID            string                      `json:"id"`
	Reference     string                      `json:"reference"`
	CustomerID    string                      `json:"customer_id"`
	AssigneeID    *string                     `json:"assignee_id"`
	Channel       domain.ConversationChannel  `json:"channel"`
	Subject       string                      `json:"subject"`
	Status        domain.ConversationStatus   `json:"status"`
	Priority      domain.ConversationPriority `json:"priority"`
	Tags          []string                    `json:"tags"`
	LastMessageAt time.Time                   `json:"last_message_at"`
	CreatedAt     time.Time                   `json:"created_at"`
	ClosedAt      *time.Time                  `json:"closed_at"`
}

// ConversationDetailResponse provides the thread with its messages.
type ConversationDetailResponse struct {
	ConversationSummary
	Messages []MessageResponse `json:"messages"`
}

// MessageResponse represents a thread entry.
type MessageResponse struct {
	ID          string                   `json:"id"`
	AuthorType  domain.MessageAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id"`
	Kind        domain.MessageKind       `json:"kind"`
	Body        string                   `json:"body"`
	Attachments []domain.AttachmentRef   `json:"attachments"`
	CreatedAt   time.Time                `json:"created_at"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Kind        domain.MessageKind     `json:"kind"`
	Body        string                 `json:"body"`
	Attachments []domain.AttachmentRef `json:"attachments"`
}

// StatusChangeRequest payload.
type StatusChangeRequest struct {
	Status domain.ConversationStatus `json:"status"`
}

// PriorityChangeRequest payload.
type PriorityChangeRequest struct {
	Priority domain.ConversationPriority `json:"priority"`
}

// AssignRequest payload. An empty AgentID assigns to the caller.
type AssignRequest struct {
	AgentID string `json:"agent_id"`
}

// TagsRequest adds and removes tags in one call.
type TagsRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// IngestRequest is a channel-connector message delivery.
type IngestRequest struct {
	TenantID            string                     `json:"tenant_id"`
	TenantSlug          string                     `json:"tenant_slug"`
	Reference           string                     `json:"reference"`
	CustomerName        string                     `json:"customer_name"`
	CustomerEmail       string                     `json:"customer_email"`
	CustomerExternalRef string                     `json:"customer_external_ref"`
	Channel             domain.ConversationChannel `json:"channel"`
	Subject             string                     `json:"subject"`
	Body                string                     `json:"body"`
}
