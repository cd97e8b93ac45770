package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names routed through the asynq mux.
const (
	TypeWebhookDeliver = "notify:webhook"
	TypeReportExport   = "reports:export"
)

// Queue names consumed by the worker binary.
const (
	QueueNotify  = "notify"
	QueueReports = "reports"
)

// WebhookDeliverPayload carries the notification to deliver. The worker
// loads the row and the tenant endpoint at delivery time so retries pick
// up an updated webhook URL.
type WebhookDeliverPayload struct {
	NotificationID string `json:"notification_id"`
	TenantID       string `json:"tenant_id"`
}

// ReportExportPayload carries the export row to materialize.
type ReportExportPayload struct {
	ExportID string `json:"export_id"`
	TenantID string `json:"tenant_id"`
}

// NewWebhookDeliverTask builds the queue task for one notification.
func NewWebhookDeliverTask(payload WebhookDeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWebhookDeliver, data), nil
}

// NewReportExportTask builds the queue task for one report export.
func NewReportExportTask(payload ReportExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReportExport, data), nil
}
