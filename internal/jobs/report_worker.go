package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReportRunner materializes a queued export. Implemented by the report
// service; the worker stays free of the aggregation logic.
type ReportRunner interface {
	RunExport(ctx context.Context, exportID string) error
}

// NewReportExportHandler adapts the runner to an asynq handler.
func NewReportExportHandler(runner ReportRunner, logger *zap.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task *asynq.Task) error {
		var payload ReportExportPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode export payload: %v: %w", err, asynq.SkipRetry)
		}

		if err := runner.RunExport(ctx, payload.ExportID); err != nil {
			return fmt.Errorf("run export %s: %w", payload.ExportID, err)
		}
		logger.Info("report export completed", zap.String("export_id", payload.ExportID))
		return nil
	}
}
