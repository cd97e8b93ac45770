package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/events"
	"github.com/asistanapp/panel-service/internal/i18n"
	"github.com/asistanapp/panel-service/internal/jobs"
	"github.com/asistanapp/panel-service/internal/realtime"
	"github.com/asistanapp/panel-service/internal/repository"
)

// NotificationService turns domain events into localized in-app items,
// live socket pushes, and webhook deliveries.
type NotificationService struct {
	notifications repository.NotificationRepository
	tenants       repository.TenantRepository
	agents        repository.AgentRepository
	conversations repository.ConversationRepository
	hub           Broadcaster
	enqueuer      jobs.Enqueuer
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification
// service. Hub and Enqueuer may be nil; the worker binary runs without a
// socket hub, tests without a queue.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	TenantRepo       repository.TenantRepository
	AgentRepo        repository.AgentRepository
	ConversationRepo repository.ConversationRepository
	Hub              Broadcaster
	Enqueuer         jobs.Enqueuer
}

// NotificationListFilter narrows the caller's notification feed.
type NotificationListFilter struct {
	UnreadOnly bool
	Types      []domain.NotificationType
	Limit      int
	Offset     int
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		tenants:       deps.TenantRepo,
		agents:        deps.AgentRepo,
		conversations: deps.ConversationRepo,
		hub:           deps.Hub,
		enqueuer:      deps.Enqueuer,
		logger:        logger,
	}
}

// RegisterHandlers subscribes the fan-out handlers on the dispatcher.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventConversationAssigned, s.handleConversationAssigned)
	dispatcher.Subscribe(events.EventConversationMessageAdded, s.handleConversationMessage)
	dispatcher.Subscribe(events.EventChatMention, s.handleChatMention)
	dispatcher.Subscribe(events.EventBreakLimitReached, s.handleBreakLimit)
	dispatcher.Subscribe(events.EventReportCompleted, s.handleReportCompleted)
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, principal *auth.Principal, filter NotificationListFilter) ([]domain.Notification, error) {
	return s.notifications.ListWithFilter(ctx, repository.NotificationFilter{
		RecipientID: principal.Agent.ID,
		UnreadOnly:  filter.UnreadOnly,
		Types:       filter.Types,
		Limit:       normalizeLimit(filter.Limit),
		Offset:      filter.Offset,
	})
}

// UnreadCount returns the badge counter.
func (s *NotificationService) UnreadCount(ctx context.Context, principal *auth.Principal) (int64, error) {
	return s.notifications.CountUnread(ctx, principal.Agent.ID)
}

// MarkRead acknowledges one notification. Scoped to the recipient.
func (s *NotificationService) MarkRead(ctx context.Context, principal *auth.Principal, id string) error {
	return s.notifications.MarkRead(ctx, id, principal.Agent.ID)
}

// MarkAllRead acknowledges the whole feed and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal *auth.Principal) (int64, error) {
	return s.notifications.MarkAllRead(ctx, principal.Agent.ID)
}

func (s *NotificationService) handleConversationAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ConversationAssignedPayload)
	if !ok || payload.AssigneeID == nil {
		return nil
	}
	// Self-assignment needs no notification.
	if event.Actor.AgentID != nil && *event.Actor.AgentID == *payload.AssigneeID {
		return nil
	}
	return s.deliver(ctx, event.TenantID, *payload.AssigneeID, domain.NotificationConversationAssigned,
		map[string]string{"reference": payload.Reference},
		map[string]any{"conversation_id": payload.ConversationID, "reference": payload.Reference},
	)
}

func (s *NotificationService) handleConversationMessage(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ConversationMessageAddedPayload)
	if !ok || payload.AuthorType != domain.AuthorTypeCustomer {
		return nil
	}
	conv, err := s.conversations.GetByID(ctx, payload.ConversationID)
	if err != nil {
		return err
	}
	if conv.AssigneeID == nil {
		return nil
	}
	return s.deliver(ctx, event.TenantID, *conv.AssigneeID, domain.NotificationConversationMessage,
		map[string]string{"reference": payload.Reference},
		map[string]any{
			"conversation_id": payload.ConversationID,
			"reference":       payload.Reference,
			"message_id":      payload.MessageID,
			"preview":         payload.BodyPreview,
		},
	)
}

func (s *NotificationService) handleChatMention(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ChatMentionPayload)
	if !ok {
		return nil
	}
	senderName := "Someone"
	if sender, err := s.agents.GetByID(ctx, payload.SenderID); err == nil {
		senderName = sender.Name
	}
	return s.deliver(ctx, event.TenantID, payload.MentionedID, domain.NotificationMention,
		map[string]string{"sender": senderName, "channel": payload.ChannelName},
		map[string]any{
			"channel_id": payload.ChannelID,
			"message_id": payload.MessageID,
			"sender_id":  payload.SenderID,
			"preview":    payload.BodyPreview,
		},
	)
}

func (s *NotificationService) handleBreakLimit(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BreakLimitReachedPayload)
	if !ok {
		return nil
	}
	minutes := payload.AllowanceSeconds / 60
	return s.deliver(ctx, event.TenantID, payload.AgentID, domain.NotificationBreakLimitReached,
		map[string]string{"allowance": strconv.Itoa(minutes)},
		map[string]any{
			"used_seconds":      payload.UsedSeconds,
			"allowance_seconds": payload.AllowanceSeconds,
		},
	)
}

func (s *NotificationService) handleReportCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportCompletedPayload)
	if !ok || payload.Status != domain.ReportStatusReady {
		return nil
	}
	return s.deliver(ctx, event.TenantID, payload.RequestedBy, domain.NotificationReportReady,
		map[string]string{"kind": string(payload.Kind)},
		map[string]any{"export_id": payload.ExportID, "kind": payload.Kind},
	)
}

// deliver localizes, persists, pushes to the recipient's socket, and queues
// the tenant webhook when one is configured.
func (s *NotificationService) deliver(ctx context.Context, tenantID, recipientID string, kind domain.NotificationType, vars map[string]string, payload map[string]any) error {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	key := "notification." + string(kind)
	notification := &domain.Notification{
		TenantID:    tenantID,
		RecipientID: recipientID,
		Type:        kind,
		Title:       i18n.T(tenant.Locale, key+".title", nil),
		Body:        i18n.T(tenant.Locale, key+".body", vars),
		Payload:     payload,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.SendToAgent(tenantID, recipientID, realtime.Frame{
			Type: realtime.FrameNotificationCreated,
			Data: map[string]any{
				"id":         notification.ID,
				"type":       notification.Type,
				"title":      notification.Title,
				"body":       notification.Body,
				"payload":    notification.Payload,
				"created_at": notification.CreatedAt,
			},
		})
	}

	if s.enqueuer != nil && tenant.WebhookURL != "" {
		if err := s.enqueuer.EnqueueWebhookDelivery(ctx, notification.ID, tenantID); err != nil {
			s.logger.Warn("webhook enqueue failed",
				zap.String("notification_id", notification.ID),
				zap.String("tenant_id", tenantID),
				zap.Error(err))
		}
	}
	return nil
}
