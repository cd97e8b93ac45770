package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/observability"
	"github.com/asistanapp/panel-service/internal/persistence"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/internal/service"
)

const demoSlug = "acme"

// Seeds a demo tenant with agents, customers, conversations, quick replies
// and a team channel. Safe to re-run; it backs off when the demo tenant
// already exists.
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

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := seedDemo(ctx, *cfg, pg, logger); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
}

func seedDemo(ctx context.Context, cfg config.Config, pg *persistence.Postgres, logger *zap.Logger) error {
	pool := pg.PoolHandle()
	tenantRepo := repository.NewTenantRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	messageRepo := repository.NewConversationMessageRepository(pool)
	quickReplyRepo := repository.NewQuickReplyRepository(pool)
	teamChatRepo := repository.NewTeamChatRepository(pool)

	if _, err := tenantRepo.GetBySlug(ctx, demoSlug); err == nil {
		logger.Info("demo tenant already present; nothing to do", zap.String("slug", demoSlug))
		return nil
	}

	tenantService := service.NewTenantService(cfg, service.TenantDependencies{TenantRepo: tenantRepo})
	agentService := service.NewAgentService(cfg, service.AgentDependencies{
		AgentRepo:  agentRepo,
		TenantRepo: tenantRepo,
	})
	customerService := service.NewCustomerService(service.CustomerDependencies{CustomerRepo: customerRepo})
	conversationService := service.NewConversationService(service.ConversationDependencies{
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		CustomerRepo:     customerRepo,
		AgentRepo:        agentRepo,
		TenantRepo:       tenantRepo,
	})
	quickReplyService := service.NewQuickReplyService(service.QuickReplyDependencies{
		QuickReplyRepo:   quickReplyRepo,
		ConversationRepo: conversationRepo,
		CustomerRepo:     customerRepo,
	})
	teamChatService := service.NewTeamChatService(service.TeamChatDependencies{
		TeamChatRepo: teamChatRepo,
		AgentRepo:    agentRepo,
		TenantRepo:   tenantRepo,
	})

	tenant, err := tenantService.Create(ctx, service.TenantCreateInput{
		Name:      "Acme Support",
		Slug:      demoSlug,
		Plan:      domain.PlanGrowth,
		MaxAgents: 10,
	})
	if err != nil {
		return fmt.Errorf("create demo tenant: %w", err)
	}

	rootHash, err := auth.HashPassword("root-password", cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}
	root := &domain.Agent{
		Name:         "Platform Root",
		Email:        "root@panel.test",
		PasswordHash: rootHash,
		Role:         domain.RoleSuperAdmin,
		Active:       true,
	}
	if err := agentRepo.Create(ctx, root); err != nil {
		return fmt.Errorf("create platform root: %w", err)
	}

	// The first admin is created with a tenant-only principal; nobody can
	// log in yet.
	bootstrap := &auth.Principal{Tenant: tenant}
	admin, err := agentService.Create(ctx, bootstrap, service.AgentCreateInput{
		Name:     "Demo Admin",
		Email:    "admin@acme.test",
		Password: "admin-password",
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create demo admin: %w", err)
	}
	operator := &auth.Principal{Agent: admin, Tenant: tenant}

	for _, spec := range []struct{ name, email string }{
		{"Maya Lindgren", "maya@acme.test"},
		{"Tomas Berg", "tomas@acme.test"},
	} {
		if _, err := agentService.Create(ctx, operator, service.AgentCreateInput{
			Name:     spec.name,
			Email:    spec.email,
			Password: "agent-password",
		}); err != nil {
			return fmt.Errorf("create agent %s: %w", spec.email, err)
		}
	}

	customers := make([]*domain.Customer, 0, 3)
	for _, spec := range []struct{ name, email, note string }{
		{"Sam Rivers", "sam@example.test", "Prefers email follow-ups."},
		{"Elif Kaya", "elif@example.test", ""},
		{"Jonas Weber", "jonas@example.test", "Enterprise evaluation contact."},
	} {
		customer, err := customerService.Create(ctx, operator, service.CustomerCreateInput{
			Name:  spec.name,
			Email: spec.email,
			Note:  spec.note,
		})
		if err != nil {
			return fmt.Errorf("create customer %s: %w", spec.email, err)
		}
		customers = append(customers, customer)
	}

	conv, err := conversationService.Create(ctx, operator, service.ConversationCreateInput{
		CustomerID:   customers[0].ID,
		Channel:      domain.ChannelEmail,
		Subject:      "Cannot reset my password",
		Priority:     domain.PriorityUrgent,
		Tags:         []string{"billing", "login"},
		FirstMessage: "Hi, the reset link in my inbox keeps expiring before I can use it.",
	})
	if err != nil {
		return fmt.Errorf("create demo conversation: %w", err)
	}
	if _, err := conversationService.AddMessage(ctx, operator, conv.ID, service.MessageInput{
		Kind: domain.MessageKindReply,
		Body: "Sorry about that! I just sent a fresh link, it is valid for 24 hours.",
	}); err != nil {
		return fmt.Errorf("add demo reply: %w", err)
	}
	if _, err := conversationService.AddMessage(ctx, operator, conv.ID, service.MessageInput{
		Kind: domain.MessageKindNote,
		Body: "Expiry was caused by the mail queue delay, watch for repeats.",
	}); err != nil {
		return fmt.Errorf("add demo note: %w", err)
	}

	if _, _, err := conversationService.IngestMessage(ctx, service.IngestInput{
		TenantSlug:    demoSlug,
		CustomerName:  "Priya Natarajan",
		CustomerEmail: "priya@example.test",
		Channel:       domain.ChannelWidget,
		Subject:       "Does the API support webhooks?",
		Body:          "We want to mirror ticket updates into our own dashboard.",
	}); err != nil {
		return fmt.Errorf("ingest demo message: %w", err)
	}

	for _, spec := range []struct{ title, body, shortCode string }{
		{"Greeting", "Hi {{customer.name}}, thanks for reaching out!", "hi"},
		{"Closing", "Glad we could help, {{customer.name}}. Have a great day!", "bye"},
	} {
		if _, err := quickReplyService.Create(ctx, operator, service.QuickReplyCreateInput{
			Title:     spec.title,
			Body:      spec.body,
			Category:  "general",
			ShortCode: spec.shortCode,
			Shared:    true,
		}); err != nil {
			return fmt.Errorf("create quick reply %q: %w", spec.title, err)
		}
	}

	if _, err := teamChatService.CreateChannel(ctx, operator, service.ChannelCreateInput{
		Name:  "general",
		Topic: "Team-wide announcements",
	}); err != nil {
		return fmt.Errorf("create demo channel: %w", err)
	}

	logger.Info("demo data seeded",
		zap.String("tenant_id", tenant.ID),
		zap.String("slug", demoSlug),
		zap.String("admin_email", admin.Email),
		zap.String("root_email", root.Email),
	)
	return nil
}
