// Package main provides the entrypoint for the Auracast API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/api"
	"github.com/auracast/auracast/internal/api/handler"
	"github.com/auracast/auracast/internal/api/middleware"
	"github.com/auracast/auracast/internal/auth"
	"github.com/auracast/auracast/internal/city"
	"github.com/auracast/auracast/internal/config"
	"github.com/auracast/auracast/internal/database"
	"github.com/auracast/auracast/internal/featureflags"
	"github.com/auracast/auracast/internal/provider/resilience"
	"github.com/auracast/auracast/internal/recommend"
	"github.com/auracast/auracast/internal/session"
	"github.com/auracast/auracast/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "auracast-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load(config.Options{
		File:    os.Getenv("AURACAST_CONFIG"),
		EnvFile: ".env",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.App.LogLevel); err == nil && cfg.App.LogLevel != "" {
		log = log.Level(level)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.App.Env).
		Msg("starting Auracast API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	sessionMetrics, err := session.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session metrics")
	}

	// Storage: Postgres when DB_HOST is set, sample data in memory otherwise.
	var (
		pool      *pgxpool.Pool
		db        handler.Pinger
		cityRepo  city.Repository = city.NewInMemoryRepository()
		flagsRepo featureflags.Repository
	)
	if cfg.Database.Enabled() {
		pool, err = connectDatabase(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare database")
		}
		defer pool.Close()
		db = pool
		cityRepo = city.NewPostgresRepository(pool)
		flagsRepo = featureflags.NewPostgresRepository(pool)
	} else {
		log.Warn().Msg("DB_HOST not set, serving sample data from memory")
	}

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagsRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	cityService := city.NewService(city.ServiceConfig{
		Repository: cityRepo,
		Logger:     log,
		Latency:    cfg.Simulation.LookupLatency.Duration,
	})

	scheduler := session.NewGocronScheduler()
	defer scheduler.Stop()

	sessions := session.NewManager(session.ManagerConfig{
		Lookup:      cityService,
		Scheduler:   scheduler,
		Logger:      log,
		Flags:       ffService,
		Metrics:     sessionMetrics,
		Interval:    cfg.Simulation.Interval.Duration,
		MaxSessions: cfg.Simulation.MaxSessions,
	})
	defer sessions.Close()

	// Health recommendations go through the resilient client so the
	// provider's breaker state shows up in /v1/ops/status.
	providers := resilience.NewRegistry()
	geminiHTTP := resilience.NewClient(resilience.ClientConfig{
		Name:     "gemini",
		Registry: providers,
		Logger:   log,
	})
	recommender := recommend.NewService(recommend.ServiceConfig{
		Generator: recommend.NewClient(recommend.ClientConfig{
			BaseURL: cfg.Gemini.BaseURL,
			Model:   cfg.Gemini.Model,
			APIKey:  cfg.Gemini.APIKey,
			HTTP:    geminiHTTP,
			Logger:  log,
		}),
		Flags:  ffService,
		Logger: log,
	})
	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("API_KEY not set - health recommendations will answer 503")
	}

	tokens := auth.NewJWTService(auth.JWTConfig{SigningKey: cfg.Auth.JWTSigningKey})
	if !tokens.Enabled() {
		log.Warn().Msg("JWT_SIGNING_KEY not set - admin endpoints are disabled")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		CityService:        cityService,
		Sessions:           sessions,
		Recommender:        recommender,
		FeatureFlagService: ffService,
		Providers:          providers,
		DB:                 db,
		Tokens:             tokens,
		RequireTLS:         cfg.App.RequireTLS,
	})

	// Create HTTP server. Streaming handlers lift the write deadline themselves.
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop tick jobs and close subscriber channels so open streams end.
	sessions.Close()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// connectDatabase opens the pool, applies the schema and seeds the sample cities.
func connectDatabase(ctx context.Context, cfg database.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("database connected")

	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	if err := city.NewPostgresRepository(pool).Seed(ctx, city.SampleRecords()); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Int("cities", len(city.SampleRecords())).Msg("sample cities seeded")
	return pool, nil
}
