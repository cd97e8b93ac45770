package dto

import "time"

// CreateChannelRequest payload.
type CreateChannelRequest struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
}

// ChannelResponse describes a team chat channel.
type ChannelResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// PostChatMessageRequest payload.
type PostChatMessageRequest struct {
	Body string `json:"body"`
}

// ChatMessageResponse is one team-chat entry.
type ChatMessageResponse struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	Mentions  []string  `json:"mentions"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelMemberResponse is one roster entry of a channel.
type ChannelMemberResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}
