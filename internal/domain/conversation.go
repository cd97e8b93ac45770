package domain

import "time"

// ConversationStatus enumerates lifecycle states for conversations.
type ConversationStatus string

const (
	ConversationStatusOpen     ConversationStatus = "OPEN"
	ConversationStatusPending  ConversationStatus = "PENDING"
	ConversationStatusResolved ConversationStatus = "RESOLVED"
	ConversationStatusClosed   ConversationStatus = "CLOSED"
)

// ConversationPriority enumerates urgency levels.
type ConversationPriority string

const (
	PriorityLow    ConversationPriority = "LOW"
	PriorityNormal ConversationPriority = "NORMAL"
	PriorityHigh   ConversationPriority = "HIGH"
	PriorityUrgent ConversationPriority = "URGENT"
)

// ConversationChannel identifies where a conversation originated.
type ConversationChannel string

const (
	ChannelEmail  ConversationChannel = "EMAIL"
	ChannelChat   ConversationChannel = "CHAT"
	ChannelWidget ConversationChannel = "WIDGET"
	ChannelPhone  ConversationChannel = "PHONE"
)

// Conversation is the aggregate for a customer-support thread.
type Conversation struct {
	ID            string
	TenantID      string
	Reference     string
	CustomerID    string
	AssigneeID    *string
	Channel       ConversationChannel
	Subject       string
	Status        ConversationStatus
	Priority      ConversationPriority
	Tags          []string
	LastMessageAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
}
