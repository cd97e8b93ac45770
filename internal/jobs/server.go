package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/config"
)

// NewServer builds the asynq server consuming the panel queues. Notification
// delivery outweighs report exports.
func NewServer(redisCfg config.RedisConfig, jobsCfg config.JobsConfig, logger *zap.Logger) *asynq.Server {
	return asynq.NewServer(RedisOpt(redisCfg), asynq.Config{
		Concurrency: jobsCfg.Concurrency,
		Queues: map[string]int{
			QueueNotify:  3,
			QueueReports: 2,
		},
		Logger: &asynqZapLogger{logger: logger.Sugar()},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		}),
	})
}

// asynqZapLogger adapts zap to asynq's logger interface.
type asynqZapLogger struct {
	logger *zap.SugaredLogger
}

func (l *asynqZapLogger) Debug(args ...interface{}) { l.logger.Debug(args...) }
func (l *asynqZapLogger) Info(args ...interface{})  { l.logger.Info(args...) }
func (l *asynqZapLogger) Warn(args ...interface{})  { l.logger.Warn(args...) }
func (l *asynqZapLogger) Error(args ...interface{}) { l.logger.Error(args...) }
func (l *asynqZapLogger) Fatal(args ...interface{}) { l.logger.Fatal(args...) }
