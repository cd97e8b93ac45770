package events

import (
	"time"

	"github.com/asistanapp/panel-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventConversationCreated       EventType = "conversation_created"
	EventConversationAssigned      EventType = "conversation_assigned"
	EventConversationStatusChanged EventType = "conversation_status_changed"
	EventConversationMessageAdded  EventType = "conversation_message_added"
	EventChatMention               EventType = "chat_mention"
	EventBreakLimitReached         EventType = "break_limit_reached"
	EventReportCompleted           EventType = "report_completed"
)

// ActorType identifies who triggered an event.
type ActorType string

const (
	ActorAgent    ActorType = "agent"
	ActorCustomer ActorType = "customer"
	ActorSystem   ActorType = "system"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    ActorType `json:"type"`
	AgentID *string   `json:"agent_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ConversationCreatedPayload payload.
type ConversationCreatedPayload struct {
	ConversationID string                      `json:"conversation_id"`
	Reference      string                      `json:"reference"`
	CustomerID     string                      `json:"customer_id"`
	Channel        domain.ConversationChannel  `json:"channel"`
	Priority       domain.ConversationPriority `json:"priority"`
	Subject        string                      `json:"subject"`
}

// ConversationAssignedPayload payload.
type ConversationAssignedPayload struct {
	ConversationID string  `json:"conversation_id"`
	Reference      string  `json:"reference"`
	AssigneeID     *string `json:"assignee_id,omitempty"`
	PreviousID     *string `json:"previous_id,omitempty"`
}

// ConversationStatusChangedPayload payload.
type ConversationStatusChangedPayload struct {
	ConversationID string                    `json:"conversation_id"`
	Reference      string                    `json:"reference"`
	OldStatus      domain.ConversationStatus `json:"old_status"`
	NewStatus      domain.ConversationStatus `json:"new_status"`
}

// ConversationMessageAddedPayload payload.
type ConversationMessageAddedPayload struct {
	ConversationID string                   `json:"conversation_id"`
	Reference      string                   `json:"reference"`
	MessageID      string                   `json:"message_id"`
	AuthorType     domain.MessageAuthorType `json:"author_type"`
	AuthorID       *string                  `json:"author_id,omitempty"`
	Kind           domain.MessageKind       `json:"kind"`
	BodyPreview    string                   `json:"body_preview"`
}

// ChatMentionPayload payload.
type ChatMentionPayload struct {
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	MessageID   string `json:"message_id"`
	SenderID    string `json:"sender_id"`
	MentionedID string `json:"mentioned_id"`
	BodyPreview string `json:"body_preview"`
}

// BreakLimitReachedPayload payload.
type BreakLimitReachedPayload struct {
	AgentID          string `json:"agent_id"`
	UsedSeconds      int    `json:"used_seconds"`
	AllowanceSeconds int    `json:"allowance_seconds"`
}

// ReportCompletedPayload payload.
type ReportCompletedPayload struct {
	ExportID    string              `json:"export_id"`
	RequestedBy string              `json:"requested_by"`
	Kind        domain.ReportKind   `json:"kind"`
	Status      domain.ReportStatus `json:"status"`
	FilePath    string              `json:"file_path,omitempty"`
}
