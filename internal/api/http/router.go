package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/http/handlers"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Conversations  *handlers.ConversationsHandler
	Ingest         *handlers.IngestHandler
	QuickReplies   *handlers.QuickRepliesHandler
	AI             *handlers.AIHandler
	Presence       *handlers.PresenceHandler
	TeamChat       *handlers.TeamChatHandler
	Notifications  *handlers.NotificationsHandler
	Reports        *handlers.ReportsHandler
	Modules        *handlers.ModulesHandler
	Customers      *handlers.CustomersHandler
	Agents         *handlers.AgentsHandler
	Tenants        *handlers.TenantsHandler
	Realtime       *realtime.Handler
	AuthMiddleware *auth.AuthMiddleware
	RateLimit      config.RateLimitConfig
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/ws", cfg.Realtime.Upgrade)

	api := app.Group("/api")

	// Connector ingest authenticates by tenant id or slug, not by bearer
	// token.
	api.Post("/ingest/messages", cfg.Ingest.IngestMessage)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", RateLimit(cfg.RateLimit.LoginPerMinute, time.Minute), cfg.Auth.Login)

	authed := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authed.Get("/me", cfg.Auth.Me)
	authed.Post("/password/change", cfg.Auth.ChangePassword)
	authed.Post("/logout", cfg.Auth.Logout)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/modules", cfg.Modules.List)

	conversations := protected.Group("/conversations", auth.RequireModule(domain.ModuleConversations))
	conversations.Get("", cfg.Conversations.List)
	conversations.Post("", cfg.Conversations.Create)
	conversations.Get("/:id", cfg.Conversations.Get)
	conversations.Post("/:id/messages", cfg.Conversations.AddMessage)
	conversations.Post("/:id/status", cfg.Conversations.ChangeStatus)
	conversations.Post("/:id/priority", cfg.Conversations.ChangePriority)
	conversations.Post("/:id/assign", cfg.Conversations.Assign)
	conversations.Delete("/:id/assign", cfg.Conversations.Unassign)
	conversations.Post("/:id/tags", cfg.Conversations.UpdateTags)

	quickReplies := protected.Group("/quick-actions", auth.RequireModule(domain.ModuleQuickReplies))
	quickReplies.Get("", cfg.QuickReplies.List)
	quickReplies.Post("", cfg.QuickReplies.Create)
	quickReplies.Get("/:id", cfg.QuickReplies.Get)
	quickReplies.Patch("/:id", cfg.QuickReplies.Update)
	quickReplies.Delete("/:id", cfg.QuickReplies.Delete)
	quickReplies.Post("/:id/render", cfg.QuickReplies.Render)

	aiGroup := protected.Group("/ai-chatbot", auth.RequireModule(domain.ModuleAIAssistant))
	aiGroup.Post("/sessions", cfg.AI.CreateSession)
	aiGroup.Get("/sessions", cfg.AI.ListSessions)
	aiGroup.Get("/sessions/:id", cfg.AI.GetSession)
	aiGroup.Post("/sessions/:id/messages", RateLimit(cfg.RateLimit.AIPerMinute, time.Minute), cfg.AI.SendMessage)
	aiGroup.Post("/sessions/:id/archive", cfg.AI.ArchiveSession)
	aiGroup.Delete("/sessions/:id", cfg.AI.DeleteSession)
	aiGroup.Post("/suggest", RateLimit(cfg.RateLimit.AIPerMinute, time.Minute), cfg.AI.Suggest)

	presence := protected.Group("/agent-status", auth.RequireTenant())
	presence.Get("", cfg.Presence.Snapshot)
	presence.Post("", cfg.Presence.SetState)
	presence.Post("/break/start", cfg.Presence.StartBreak)
	presence.Post("/break/end", cfg.Presence.EndBreak)
	presence.Post("/heartbeat", cfg.Presence.Heartbeat)
	presence.Get("/team", cfg.Presence.Team)

	notifications := protected.Group("/notifications", auth.RequireTenant())
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)

	teamChat := protected.Group("/team-chat", auth.RequireModule(domain.ModuleTeamChat))
	teamChat.Get("/channels", cfg.TeamChat.ListChannels)
	teamChat.Post("/channels", cfg.TeamChat.CreateChannel)
	teamChat.Get("/channels/:id/messages", cfg.TeamChat.History)
	teamChat.Post("/channels/:id/messages", cfg.TeamChat.PostMessage)
	teamChat.Get("/channels/:id/members", cfg.TeamChat.Members)
	teamChat.Post("/channels/:id/leave", cfg.TeamChat.Leave)
	teamChat.Delete("/channels/:id", cfg.TeamChat.DeleteChannel)

	reports := protected.Group("/reports", auth.RequireModule(domain.ModuleReports))
	reports.Get("/conversations/summary", cfg.Reports.Summary)
	reports.Post("/exports", cfg.Reports.RequestExport)
	reports.Get("/exports", cfg.Reports.ListExports)
	reports.Get("/exports/:id", cfg.Reports.GetExport)
	reports.Get("/exports/:id/download", cfg.Reports.Download)

	customers := protected.Group("/customers", auth.RequireTenant())
	customers.Get("", cfg.Customers.List)
	customers.Post("", cfg.Customers.Create)
	customers.Get("/:id", cfg.Customers.Get)
	customers.Patch("/:id", cfg.Customers.Update)

	agents := protected.Group("/agents")
	agents.Get("", cfg.Agents.List)
	agents.Get("/:id", cfg.Agents.Get)
	agents.Post("", auth.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin), cfg.Agents.Create)
	agents.Patch("/:id", auth.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin), cfg.Agents.Update)

	tenants := protected.Group("/tenants", auth.RequireRole(domain.RoleSuperAdmin))
	tenants.Get("", cfg.Tenants.List)
	tenants.Post("", cfg.Tenants.Create)
	tenants.Get("/:id", cfg.Tenants.Get)
	tenants.Patch("/:id", cfg.Tenants.Update)
	tenants.Post("/:id/plan", cfg.Tenants.ChangePlan)
	tenants.Post("/:id/modules", cfg.Tenants.SetModule)
	tenants.Post("/:id/suspend", cfg.Tenants.Suspend)
	tenants.Post("/:id/reactivate", cfg.Tenants.Reactivate)
	tenants.Post("/:id/cancel", cfg.Tenants.Cancel)
}
