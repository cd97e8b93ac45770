package domain

import "time"

// NotificationType enumerates in-app notification categories.
type NotificationType string

const (
	NotificationConversationAssigned NotificationType = "conversation_assigned"
	NotificationConversationMessage  NotificationType = "conversation_message"
	NotificationMention              NotificationType = "mention"
	NotificationReportReady          NotificationType = "report_ready"
	NotificationBreakLimitReached    NotificationType = "break_limit_reached"
)

// Notification is an in-app item addressed to one agent. Title and Body are
// localized at creation time using the tenant locale.
type Notification struct {
	ID          string
	TenantID    string
	RecipientID string
	Type        NotificationType
	Title       string
	Body        string
	Payload     map[string]any
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// Unread reports whether the notification is still pending acknowledgement.
func (n *Notification) Unread() bool {
	return n.ReadAt == nil
}
