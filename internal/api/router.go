// Package api provides the HTTP API for Auracast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/api/handler"
	"github.com/auracast/auracast/internal/api/middleware"
	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/auth"
	"github.com/auracast/auracast/internal/city"
	"github.com/auracast/auracast/internal/featureflags"
	"github.com/auracast/auracast/internal/provider/resilience"
	"github.com/auracast/auracast/internal/recommend"
	"github.com/auracast/auracast/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	CityService        *city.Service
	Sessions           *session.Manager
	Recommender        *recommend.Service
	FeatureFlagService *featureflags.Service
	Providers          *resilience.Registry

	// DB is pinged by the readiness probe. Nil when running in memory.
	DB handler.Pinger

	// Tokens verifies admin bearer tokens. Without a signing key the admin
	// routes answer 503.
	Tokens *auth.JWTService

	// RequireTLS rejects plain-HTTP requests (REQUIRE_TLS=true).
	RequireTLS bool

	// Rand overrides the source for POST /v1/aqi/fluctuate. Tests only.
	Rand aqi.RandomSource
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "auracast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		DB:        cfg.DB,
		Providers: cfg.Providers,
		Sessions:  cfg.Sessions,
		Flags:     cfg.FeatureFlagService,
	})
	metadataHandler := handler.NewMetadataHandler()
	aqiHandler := handler.NewAQIHandler(cfg.Rand)
	cityHandler := handler.NewCityHandler(cfg.CityService, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(cfg.Sessions, cfg.Logger)
	recommendationHandler := handler.NewRecommendationHandler(cfg.Recommender)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		// Ops endpoints (public, not rate limited for probes)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/pollutants", metadataHandler.ListPollutants)
			r.Get("/levels", metadataHandler.ListLevels)
		})

		r.Route("/aqi", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/classify", aqiHandler.Classify)
			r.Post("/status", aqiHandler.Status)
			r.Post("/fluctuate", aqiHandler.Fluctuate)
		})

		r.Route("/cities", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", cityHandler.ListCities)
			r.Get("/{city}", cityHandler.GetCity)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Post("/", sessionHandler.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Put("/", sessionHandler.UpdateSession)
				r.Delete("/", sessionHandler.DeleteSession)
				r.Get("/events", sessionHandler.StreamEvents)
				r.Get("/ws", sessionHandler.StreamWebSocket)
			})
		})

		// Recommendations call out to a language model - strict rate limiting
		r.With(expensiveRateLimit).Post("/recommendations", recommendationHandler.Recommend)

		// Admin endpoints (admin token) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminOnly(cfg.Tokens))
			r.Use(middleware.RateLimitByAdmin(middleware.StandardRateLimit))

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
