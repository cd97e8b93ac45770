package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/config"
)

// Enqueuer queues background work for the worker binary. Services depend on
// this interface so tests can capture enqueued tasks.
type Enqueuer interface {
	EnqueueWebhookDelivery(ctx context.Context, notificationID, tenantID string) error
	EnqueueReportExport(ctx context.Context, exportID, tenantID string) error
}

// RedisOpt maps the application Redis settings onto asynq's connection
// options. The queue shares the instance with the presence store.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

type asynqEnqueuer struct {
	client       *asynq.Client
	webhookRetry int
	logger       *zap.Logger
}

// NewEnqueuer wraps an asynq client with the panel's task routing.
func NewEnqueuer(client *asynq.Client, cfg config.JobsConfig, logger *zap.Logger) Enqueuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &asynqEnqueuer{client: client, webhookRetry: cfg.WebhookRetry, logger: logger}
}

func (e *asynqEnqueuer) EnqueueWebhookDelivery(ctx context.Context, notificationID, tenantID string) error {
	task, err := NewWebhookDeliverTask(WebhookDeliverPayload{
		NotificationID: notificationID,
		TenantID:       tenantID,
	})
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueNotify),
		asynq.MaxRetry(e.webhookRetry),
	)
	if err != nil {
		return err
	}
	e.logger.Debug("webhook delivery queued",
		zap.String("task_id", info.ID),
		zap.String("notification_id", notificationID),
	)
	return nil
}

func (e *asynqEnqueuer) EnqueueReportExport(ctx context.Context, exportID, tenantID string) error {
	task, err := NewReportExportTask(ReportExportPayload{ExportID: exportID, TenantID: tenantID})
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueReports),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		return err
	}
	e.logger.Debug("report export queued",
		zap.String("task_id", info.ID),
		zap.String("export_id", exportID),
	)
	return nil
}
