// Package api provides the HTTP API for statuswatch.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/statuswatch/statuswatch/internal/api/handler"
	"github.com/statuswatch/statuswatch/internal/api/middleware"
	"github.com/statuswatch/statuswatch/internal/api/response"
	"github.com/statuswatch/statuswatch/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	// Snapshots serves every document endpoint.
	Snapshots handler.SnapshotReader

	// Feeds backs /v1/ops/status. Optional.
	Feeds *resilience.Registry

	// Archive serves /v1/incidents?since=. Optional.
	Archive handler.IncidentArchive
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "statuswatch-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging, sees the trace ID
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction for rate limiting
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})
	// Every route is read-only.
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, http.MethodGet)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Snapshots, cfg.Feeds)
	statusHandler := handler.NewStatusHandler(cfg.Snapshots, cfg.Archive)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 120 req/min
	documentRateLimit := middleware.RateLimitByIP(middleware.DocumentRateLimit) // 60 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints are probed by the platform and stay unlimited.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/providers", statusHandler.ListProviders)
			r.Get("/status", statusHandler.GetStatus)
			r.Get("/status/{provider}", statusHandler.GetProviderStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(documentRateLimit)
			r.Get("/incidents", statusHandler.ListIncidents)
			r.Get("/analytics", statusHandler.GetAnalytics)
			r.Get("/analytics/{period}", statusHandler.GetAnalyticsPeriod)
		})
	})

	return r
}
