package dto

import (
	"time"

	"github.com/asistanapp/panel-service/internal/domain"
)

// CreateAISessionRequest payload.
type CreateAISessionRequest struct {
	Title          string  `json:"title"`
	ConversationID *string `json:"conversation_id"`
}

// AISessionResponse describes an assistant thread.
type AISessionResponse struct {
	ID             string                 `json:"id"`
	ConversationID *string                `json:"conversation_id"`
	Title          string                 `json:"title"`
	Status         domain.AISessionStatus `json:"status"`
	MessageCount   int                    `json:"message_count"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// AISendRequest payload.
type AISendRequest struct {
	Text string `json:"text"`
}

// TranscriptEntryResponse is one stored exchange line.
type TranscriptEntryResponse struct {
	ID        string        `json:"id"`
	Role      domain.AIRole `json:"role"`
	Content   string        `json:"content"`
	TokensIn  int           `json:"tokens_in"`
	TokensOut int           `json:"tokens_out"`
	CreatedAt time.Time     `json:"created_at"`
}

// AISendResponse carries the assistant reply and token accounting.
type AISendResponse struct {
	Entry TranscriptEntryResponse `json:"entry"`
	Usage *domain.AIUsage         `json:"usage,omitempty"`
}

// SuggestRequest payload.
type SuggestRequest struct {
	ConversationID string `json:"conversation_id"`
}

// SuggestResponse carries a draft reply for a conversation.
type SuggestResponse struct {
	Suggestion string          `json:"suggestion"`
	Usage      *domain.AIUsage `json:"usage,omitempty"`
}
