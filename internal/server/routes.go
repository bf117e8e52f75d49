package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/stockwise/stockwise/internal/agent"
	"github.com/stockwise/stockwise/internal/config"
	"github.com/stockwise/stockwise/internal/handler"
	"github.com/stockwise/stockwise/internal/llm"
	"github.com/stockwise/stockwise/internal/middleware"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/security"
	"github.com/stockwise/stockwise/internal/service"
	"github.com/stockwise/stockwise/internal/store"
	"github.com/stockwise/stockwise/internal/tools"
)

// NewRouter wires services and handlers over st and client
func NewRouter(cfg *config.Config, st store.Store, client llm.Client) (http.Handler, error) {
	// ─── Security ───────────────────────────────────────────────────────────────
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)
	usage := security.NewUsageTracker(cfg.TokenBudgetPerUser)

	chatOpts := []handler.ChatbotOption{
		handler.WithAuditLogger(auditLogger),
		handler.WithUsageTracker(usage),
	}
	if cfg.EnablePromptValidation {
		chatOpts = append(chatOpts, handler.WithPromptValidator(security.NewPromptValidator(cfg.MaxPromptLength)))
	}
	if cfg.EnablePIIDetection {
		chatOpts = append(chatOpts, handler.WithPIIDetector(security.NewPIIDetector(cfg.PIIKeywords)))
	}

	// ─── Assistant ───────────────────────────────────────────────────────────────
	registry, err := tools.NewRegistry(tools.InventoryTools(time.Now)...)
	if err != nil {
		return nil, err
	}
	assistant := agent.NewAssistant(client, registry, st,
		agent.WithModel(cfg.Model()),
		agent.WithTimeout(cfg.AgentTimeoutDuration()),
		agent.WithMaxParallelTools(cfg.AgentMaxParallelTools),
		agent.WithUsageFunc(func(caller models.User, model string, u llm.Usage) {
			usage.Record(caller.ID, model, u.InputTokens, u.OutputTokens)
		}),
	)

	log.Info().
		Str("store_driver", cfg.StoreDriver).
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.Model()).
		Int("tools", len(registry.Describe())).
		Bool("auth_enabled", cfg.EnableAuth).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Bool("prompt_validation", cfg.EnablePromptValidation).
		Msg("service configuration")
	if !cfg.EnableAuth {
		log.Warn().Str("dev_user", cfg.DevUserEmail).Msg("auth disabled - all requests run as the dev user")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(st, cfg.LLMAPIKey != "")
	productsH := handler.NewProductsHandler(st, auditLogger)
	suppliersH := handler.NewSuppliersHandler(st, auditLogger)
	customersH := handler.NewCustomersHandler(st, auditLogger)
	ordersH := handler.NewOrdersHandler(st, auditLogger)
	reordersH := handler.NewReordersHandler(st, auditLogger)
	dashboardH := handler.NewDashboardHandler(service.NewDashboard(st))
	predictionsH := handler.NewPredictionsHandler(service.NewForecaster(st))
	chatbotH := handler.NewChatbotHandler(assistant, cfg.MaxPromptLength, chatOpts...)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins, config.DefaultCORSMaxAge)))

	// Public routes
	r.Get("/", handler.Root)
	r.Get("/health", healthH.Health)

	r.Route(cfg.APIPrefix, func(r chi.Router) {
		// Identity first so the limiter can key by user
		r.Use(middleware.Auth(st, middleware.AuthConfig{
			Enabled:      cfg.EnableAuth,
			HeaderName:   cfg.APIKeyHeader,
			DevUserEmail: cfg.DevUserEmail,
		}))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.APIKeyHeader))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productsH.List)
			r.Post("/", productsH.Create)
			r.Get("/{id}", productsH.Get)
			r.Patch("/{id}", productsH.Update)
			r.Delete("/{id}", productsH.Delete)
		})
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", suppliersH.List)
			r.Post("/", suppliersH.Create)
			r.Patch("/{id}", suppliersH.Update)
			r.Delete("/{id}", suppliersH.Delete)
		})
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customersH.List)
			r.Post("/", customersH.Create)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersH.List)
			r.Post("/sales", ordersH.RecordSale)
			r.Get("/{id}", ordersH.Details)
			r.Patch("/{id}", ordersH.UpdateStatus)
		})
		r.Post("/reorders/reorder", reordersH.Reorder)
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/kpis", dashboardH.KPIs)
			r.Get("/low-stock-alerts", dashboardH.LowStockAlerts)
			r.Get("/priority-tasks", dashboardH.PriorityTasks)
		})
		r.Get("/predictions/demand/{product_id}", predictionsH.Demand)
		r.Post("/chatbot", chatbotH.Chat)
	})

	return r, nil
}
