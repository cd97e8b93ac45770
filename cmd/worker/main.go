package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/events"
	"github.com/asistanapp/panel-service/internal/jobs"
	"github.com/asistanapp/panel-service/internal/observability"
	"github.com/asistanapp/panel-service/internal/persistence"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	tenantRepo := repository.NewTenantRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	exportRepo := repository.NewReportExportRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)

	asynqClient := asynq.NewClient(jobs.RedisOpt(cfg.Redis))
	defer asynqClient.Close() //nolint:errcheck
	enqueuer := jobs.NewEnqueuer(asynqClient, cfg.Jobs, logger)

	// No socket hub in the worker; export completion events still become
	// notification rows through the dispatcher.
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		TenantRepo:       tenantRepo,
		AgentRepo:        agentRepo,
		ConversationRepo: conversationRepo,
		Enqueuer:         enqueuer,
	}, logger)
	notificationService.RegisterHandlers(dispatcher)

	reportService := service.NewReportService(*cfg, service.ReportDependencies{
		ExportRepo:       exportRepo,
		ConversationRepo: conversationRepo,
		TenantRepo:       tenantRepo,
		Enqueuer:         enqueuer,
		Dispatcher:       dispatcher,
	})

	webhookWorker := jobs.NewWebhookWorker(notificationRepo, tenantRepo, cfg.Notification, logger)

	mux := asynq.NewServeMux()
	mux.Handle(jobs.TypeWebhookDeliver, webhookWorker)
	mux.Handle(jobs.TypeReportExport, jobs.NewReportExportHandler(reportService, logger))

	srv := jobs.NewServer(cfg.Redis, cfg.Jobs, logger)

	logger.Info("worker starting",
		zap.Int("concurrency", cfg.Jobs.Concurrency),
	)
	if err := srv.Run(mux); err != nil {
		logger.Fatal("asynq server", zap.Error(err))
	}
}
