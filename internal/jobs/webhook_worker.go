package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
)

// NotificationLoader is the slice of the notification repository the
// webhook worker needs.
type NotificationLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
}

// TenantLoader resolves the tenant owning the webhook endpoint.
type TenantLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
}

type webhookDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// webhookBody is the JSON document posted to tenant endpoints.
type webhookBody struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	TenantID  string                  `json:"tenant_id"`
	Payload   map[string]any          `json:"payload"`
	CreatedAt time.Time               `json:"created_at"`
}

// WebhookWorker posts notifications to tenant webhook endpoints. A non-2xx
// response is returned as an error so asynq applies its retry backoff.
type WebhookWorker struct {
	notifications NotificationLoader
	tenants       TenantLoader
	client        webhookDoer
	logger        *zap.Logger
}

// NewWebhookWorker builds the delivery handler.
func NewWebhookWorker(notifications NotificationLoader, tenants TenantLoader, cfg config.NotificationConfig, logger *zap.Logger) *WebhookWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookWorker{
		notifications: notifications,
		tenants:       tenants,
		client:        &http.Client{Timeout: time.Duration(cfg.WebhookTimeoutSec) * time.Second},
		logger:        logger,
	}
}

// ProcessTask delivers one notification. Missing rows and unset endpoints
// drop the task without retrying.
func (w *WebhookWorker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload WebhookDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode webhook payload: %v: %w", err, asynq.SkipRetry)
	}

	notification, err := w.notifications.GetByID(ctx, payload.NotificationID)
	if err != nil {
		return fmt.Errorf("load notification %s: %v: %w", payload.NotificationID, err, asynq.SkipRetry)
	}
	tenant, err := w.tenants.GetByID(ctx, payload.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant %s: %w", payload.TenantID, err)
	}
	if tenant.WebhookURL == "" {
		w.logger.Debug("tenant has no webhook endpoint", zap.String("tenant_id", tenant.ID))
		return nil
	}

	body, err := json.Marshal(webhookBody{
		ID:        notification.ID,
		Type:      notification.Type,
		TenantID:  notification.TenantID,
		Payload:   notification.Payload,
		CreatedAt: notification.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode webhook body: %v: %w", err, asynq.SkipRetry)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tenant.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %v: %w", err, asynq.SkipRetry)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-Type", string(notification.Type))

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}

	w.logger.Info("webhook delivered",
		zap.String("notification_id", notification.ID),
		zap.String("tenant_id", tenant.ID),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
