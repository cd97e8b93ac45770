package domain

import "time"

// AISessionStatus enumerates assistant session states.
type AISessionStatus string

const (
	AISessionActive   AISessionStatus = "ACTIVE"
	AISessionArchived AISessionStatus = "ARCHIVED"
)

// AISession is one agent-facing assistant thread. The transcript itself lives
// in the transcript store; the session row tracks metadata.
type AISession struct {
	ID             string
	TenantID       string
	AgentID        string
	ConversationID *string
	Title          string
	Status         AISessionStatus
	MessageCount   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AIRole enumerates transcript entry roles, mirroring chat-completion APIs.
type AIRole string

const (
	AIRoleUser      AIRole = "user"
	AIRoleAssistant AIRole = "assistant"
	AIRoleSystem    AIRole = "system"
)

// AITranscriptEntry is one stored exchange line of an assistant session.
type AITranscriptEntry struct {
	ID        string
	SessionID string
	TenantID  string
	Role      AIRole
	Content   string
	TokensIn  int
	TokensOut int
	CreatedAt time.Time
}

// AIUsage carries provider token accounting for one completion.
type AIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
