package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/ai"
	httptransport "github.com/asistanapp/panel-service/internal/api/http"
	"github.com/asistanapp/panel-service/internal/api/http/handlers"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/events"
	"github.com/asistanapp/panel-service/internal/jobs"
	"github.com/asistanapp/panel-service/internal/observability"
	"github.com/asistanapp/panel-service/internal/persistence"
	"github.com/asistanapp/panel-service/internal/presence"
	"github.com/asistanapp/panel-service/internal/realtime"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("failed to connect mongodb", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	pool := pg.PoolHandle()
	tenantRepo := repository.NewTenantRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	messageRepo := repository.NewConversationMessageRepository(pool)
	quickReplyRepo := repository.NewQuickReplyRepository(pool)
	sessionRepo := repository.NewAISessionRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	teamChatRepo := repository.NewTeamChatRepository(pool)
	exportRepo := repository.NewReportExportRepository(pool)

	hub := realtime.NewHub(logger)
	go hub.Run()
	defer hub.Shutdown()

	dispatcher := events.NewInMemoryDispatcher(logger)

	asynqClient := asynq.NewClient(jobs.RedisOpt(cfg.Redis))
	defer asynqClient.Close() //nolint:errcheck
	enqueuer := jobs.NewEnqueuer(asynqClient, cfg.Jobs, logger)

	presenceStore := presence.NewRedisStore(redis.Client, cfg.Presence.HeartbeatTTL(), cfg.Presence.BreakLedgerTTL())

	var transcripts ai.TranscriptStore
	if mongo.Available() {
		transcripts = ai.NewMongoTranscriptStore(mongo.Transcripts)
	} else {
		transcripts = ai.NewMemoryTranscriptStore()
	}
	aiClient := ai.NewClient(cfg.AI, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AgentRepo:  agentRepo,
		TenantRepo: tenantRepo,
	})
	tenantService := service.NewTenantService(*cfg, service.TenantDependencies{
		TenantRepo: tenantRepo,
	})
	agentService := service.NewAgentService(*cfg, service.AgentDependencies{
		AgentRepo:  agentRepo,
		TenantRepo: tenantRepo,
	})
	customerService := service.NewCustomerService(service.CustomerDependencies{
		CustomerRepo: customerRepo,
	})
	conversationService := service.NewConversationService(service.ConversationDependencies{
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		CustomerRepo:     customerRepo,
		AgentRepo:        agentRepo,
		TenantRepo:       tenantRepo,
		Dispatcher:       dispatcher,
	})
	quickReplyService := service.NewQuickReplyService(service.QuickReplyDependencies{
		QuickReplyRepo:   quickReplyRepo,
		ConversationRepo: conversationRepo,
		CustomerRepo:     customerRepo,
	})
	aiService := service.NewAIService(*cfg, service.AIDependencies{
		SessionRepo:      sessionRepo,
		Transcripts:      transcripts,
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		CustomerRepo:     customerRepo,
		Client:           aiClient,
	})
	presenceService := service.NewPresenceService(*cfg, service.PresenceDependencies{
		Store:      presenceStore,
		AgentRepo:  agentRepo,
		Dispatcher: dispatcher,
		Hub:        hub,
	})
	teamChatService := service.NewTeamChatService(service.TeamChatDependencies{
		TeamChatRepo: teamChatRepo,
		AgentRepo:    agentRepo,
		TenantRepo:   tenantRepo,
		Dispatcher:   dispatcher,
		Hub:          hub,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		TenantRepo:       tenantRepo,
		AgentRepo:        agentRepo,
		ConversationRepo: conversationRepo,
		Hub:              hub,
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

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), agentRepo, tenantRepo)
	realtimeHandler := realtime.NewHandler(hub, authService.TokenManager(), teamChatService.CanJoin, logger)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, mongo),
		Auth:           handlers.NewAuthHandler(authService),
		Conversations:  handlers.NewConversationsHandler(conversationService),
		Ingest:         handlers.NewIngestHandler(conversationService),
		QuickReplies:   handlers.NewQuickRepliesHandler(quickReplyService),
		AI:             handlers.NewAIHandler(aiService),
		Presence:       handlers.NewPresenceHandler(presenceService),
		TeamChat:       handlers.NewTeamChatHandler(teamChatService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Reports:        handlers.NewReportsHandler(reportService),
		Modules:        handlers.NewModulesHandler(),
		Customers:      handlers.NewCustomersHandler(customerService),
		Agents:         handlers.NewAgentsHandler(agentService),
		Tenants:        handlers.NewTenantsHandler(tenantService),
		Realtime:       realtimeHandler,
		AuthMiddleware: authMiddleware,
		RateLimit:      cfg.RateLimit,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
