package domain

import "time"

// MessageAuthorType indicates who authored a conversation message.
type MessageAuthorType string

const (
	AuthorTypeCustomer MessageAuthorType = "CUSTOMER"
	AuthorTypeAgent    MessageAuthorType = "AGENT"
	AuthorTypeSystem   MessageAuthorType = "SYSTEM"
	AuthorTypeBot      MessageAuthorType = "BOT"
)

// MessageKind differentiates replies, internal notes, and system events.
type MessageKind string

const (
	MessageKindReply MessageKind = "REPLY"
	MessageKindNote  MessageKind = "NOTE"
	MessageKindEvent MessageKind = "EVENT"
)

// ConversationMessage captures one entry in a conversation thread.
type ConversationMessage struct {
	ID             string
	ConversationID string
	AuthorType     MessageAuthorType
	AuthorID       *string
	Kind           MessageKind
	Body           string
	Attachments    []AttachmentRef
	CreatedAt      time.Time
}

// AttachmentRef stores metadata for an uploaded file referenced by a message.
// The payload itself lives in object storage under StorageKey.
type AttachmentRef struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}
