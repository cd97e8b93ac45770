package dto

import (
	"time"

	"github.com/asistanapp/panel-service/internal/domain"
)

// ExportRequest payload. From and To default to the trailing seven days.
type ExportRequest struct {
	Kind domain.ReportKind `json:"kind"`
	From *time.Time        `json:"from"`
	To   *time.Time        `json:"to"`
}

// ExportResponse tracks one asynchronous CSV export.
type ExportResponse struct {
	ID          string              `json:"id"`
	Kind        domain.ReportKind   `json:"kind"`
	PeriodFrom  time.Time           `json:"period_from"`
	PeriodTo    time.Time           `json:"period_to"`
	Status      domain.ReportStatus `json:"status"`
	SizeBytes   int64               `json:"size_bytes"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at"`
}
