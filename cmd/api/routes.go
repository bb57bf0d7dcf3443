package main

import (
	"context"
	"database/sql"

	"converso-platform/internal/agent"
	"converso-platform/internal/audit"
	"converso-platform/internal/auth"
	"converso-platform/internal/booking"
	"converso-platform/internal/calendar"
	"converso-platform/internal/channel"
	"converso-platform/internal/classifier"
	"converso-platform/internal/config"
	"converso-platform/internal/contact"
	"converso-platform/internal/conversation"
	"converso-platform/internal/escalation"
	"converso-platform/internal/httpapi"
	"converso-platform/internal/lexicon"
	"converso-platform/internal/quota"
	"converso-platform/internal/rbac"
	"converso-platform/internal/reporting"
	"converso-platform/internal/usage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// appDeps bundles the wired services handed to route registration.
type appDeps struct {
	Handlers httpapi.Handlers
	WhatsApp channel.WhatsAppWebhookHandler
	Voice    channel.VoiceWebhookHandler
}

// configCalendars serves the deployment-default calendar connection to every
// workspace until per-workspace connections are stored.
type configCalendars struct {
	conn calendar.Connection
}

func (d configCalendars) Connection(_ context.Context, workspaceID string) (calendar.Connection, error) {
	c := d.conn
	c.CalendarID = workspaceID
	return c, nil
}

func buildDeps(cfg config.Config, authManager *auth.Manager, db *sql.DB, rdb *redis.Client) appDeps {
	set := lexicon.Default()
	engine := classifier.New(set)
	router := escalation.NewRouter(set)

	var provider calendar.Provider
	if cfg.IsProduction() {
		provider = calendar.NewGoogleProvider()
	} else {
		provider = calendar.NewMemoryProvider()
	}
	flow := booking.NewFlow(calendar.NewResolver(provider), provider, booking.NewRedisStore(rdb))

	conversations := conversation.NewPostgresRepo(db)
	quotas := quota.NewService(quota.NewPostgresRepo(db))
	usages := usage.NewService(usage.NewPostgresRepo(db))
	audits := audit.NewService(audit.NewPostgresRepo(db))

	calendars := configCalendars{conn: calendar.Connection{
		Timezone:            cfg.Calendar.Timezone,
		DayStartMinute:      cfg.Calendar.DayStartMinute,
		DayEndMinute:        cfg.Calendar.DayEndMinute,
		SlotDurationMinutes: cfg.Calendar.SlotDurationMinutes,
		BufferMinutes:       cfg.Calendar.BufferMinutes,
	}}

	orchestrator := agent.NewOrchestrator(set, engine, router, flow, quotas, usages, calendars).
		WithAudit(audits)

	resolveWorkspace := channel.NewPostgresWorkspaceResolver(db)

	return appDeps{
		Handlers: httpapi.Handlers{
			Auth:          authManager,
			Quotas:        quotas,
			Contacts:      contact.NewAggregator(engine),
			ContactFacts:  contact.NewPostgresFacts(db),
			Conversations: conversations,
			Orchestrator:  orchestrator,
			Reports:       reporting.NewService(reporting.NewPostgresRepo(db), engine),
		},
		WhatsApp: channel.WhatsAppWebhookHandler{
			Orchestrator:      orchestrator,
			Conversations:     conversations,
			WorkspaceResolver: resolveWorkspace,
			SignatureSecret:   cfg.Channel.WebhookSecret,
			Redis:             rdb,
			MaxConcurrent:     cfg.Channel.MaxConcurrent,
			DefaultLanguage:   cfg.Channel.DefaultLanguage,
		},
		Voice: channel.VoiceWebhookHandler{
			Orchestrator:      orchestrator,
			Conversations:     conversations,
			Usage:             usages,
			WorkspaceResolver: resolveWorkspace,
			SignatureSecret:   cfg.Channel.WebhookSecret,
			GatherAction:      "/webhooks/voice",
			DefaultLanguage:   cfg.Channel.DefaultLanguage,
		},
	}
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps appDeps, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public). Inbound bodies are authenticated by the
	// HMAC signature check inside the handlers, not by JWT.
	r.POST("/webhooks/whatsapp", deps.WhatsApp.HandleInbound)
	r.POST("/webhooks/voice", deps.Voice.HandleInbound)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			wid, _ := auth.WorkspaceID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "workspace_id": wid, "role": role})
		})

		// AUTH routes (token issuance).
		// NOTE: This is a placeholder login route; real credential validation is not implemented.
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", deps.Handlers.Login)
		}

		// QUOTA routes: preview checks only, usage is never recorded here.
		quotaGroup := v1.Group("/quota")
		quotaGroup.Use(rbac.RequireWorkspace())
		{
			quotaGroup.GET("/call-minutes", deps.Handlers.GetCallMinuteQuota)
			quotaGroup.GET("/whatsapp-conversations", deps.Handlers.GetWhatsappConversationQuota)
		}

		// CONTACT routes
		contacts := v1.Group("/contacts")
		contacts.Use(httpapi.RequireWorkspaceAndAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleAnalyst, rbac.RoleSuperAdmin)...)
		{
			contacts.GET("/:contact_id/analysis", deps.Handlers.GetContactAnalysis)
		}

		// BOOKING routes
		bookings := v1.Group("/bookings")
		bookings.Use(httpapi.RequireWorkspaceAndAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleSuperAdmin)...)
		{
			bookings.POST("", deps.Handlers.CreateBooking)
		}

		// REPORTING routes
		reports := v1.Group("/reports")
		reports.Use(httpapi.RequireWorkspaceAndAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleSuperAdmin)...)
		{
			reports.GET("/usage", deps.Handlers.GetUsageReport)
			reports.GET("/conversations", deps.Handlers.GetConversationsReport)
		}

		// ADMIN routes
		// Only owner/super_admin can access admin endpoints by default.
		// Hidden support_operator is intentionally NOT included unless explicitly desired.
		admin := v1.Group("/admin")
		admin.Use(httpapi.RequireWorkspaceAndAnyRole(rbac.RoleOwner, rbac.RoleSuperAdmin)...)
		{
			admin.GET("/ping", func(c *gin.Context) {
				c.JSON(200, gin.H{"status": "ok"})
			})
		}
	}
}
