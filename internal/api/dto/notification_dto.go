package dto

import (
	"time"

	"github.com/asistanapp/panel-service/internal/domain"
)

// NotificationResponse is one in-app feed item.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Body      string                  `json:"body"`
	Payload   map[string]any          `json:"payload,omitempty"`
	ReadAt    *time.Time              `json:"read_at"`
	CreatedAt time.Time               `json:"created_at"`
}
