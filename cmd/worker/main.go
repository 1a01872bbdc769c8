// Package main provides the entrypoint for the Auracast worker: headless
// simulation sessions whose readings are published to the configured sinks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/city"
	"github.com/auracast/auracast/internal/config"
	"github.com/auracast/auracast/internal/database"
	"github.com/auracast/auracast/internal/featureflags"
	"github.com/auracast/auracast/internal/publish"
	"github.com/auracast/auracast/internal/session"
	"github.com/auracast/auracast/internal/telemetry"
	"github.com/auracast/auracast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "auracast-worker"

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
		Msg("starting Auracast worker")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	sessionMetrics, err := session.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session metrics")
	}

	var (
		cityRepo  city.Repository = city.NewInMemoryRepository()
		flagsRepo featureflags.Repository
	)
	if cfg.Database.Enabled() {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		cityRepo = city.NewPostgresRepository(pool)
		flagsRepo = featureflags.NewPostgresRepository(pool)
		log.Info().Str("host", cfg.Database.Host).Msg("database connected")
	}

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagsRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})

	scheduler := session.NewGocronScheduler()
	defer scheduler.Stop()

	sessions := session.NewManager(session.ManagerConfig{
		Lookup: city.NewService(city.ServiceConfig{
			Repository: cityRepo,
			Logger:     log,
			Latency:    cfg.Simulation.LookupLatency.Duration,
		}),
		Scheduler:   scheduler,
		Logger:      log,
		Flags:       flags,
		Metrics:     sessionMetrics,
		Interval:    cfg.Simulation.Interval.Duration,
		MaxSessions: cfg.Simulation.MaxSessions,
	})
	defer sessions.Close()

	fanout := publish.NewFanout(publish.FanoutConfig{
		Publishers: dialSinks(ctx, cfg, log),
		Logger:     log,
	})
	defer func() {
		if err := fanout.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close sinks")
		}
	}()
	if fanout.Len() == 0 {
		log.Warn().Msg("no sinks configured - readings are simulated but not published")
	}

	w := worker.New(worker.WorkerConfig{
		Config: worker.Config{
			Cities:      cfg.Worker.Cities,
			Concurrency: cfg.Worker.Concurrency,
		},
		Logger:    log,
		Sessions:  sessions,
		Publisher: fanout,
		Flags:     flags,
	})
	defer w.Close()

	// Health endpoint for the platform's probes, with worker and sink counters.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(rw).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"worker":  w.MetricsSnapshot(),
			"sinks":   fanout.Stats(),
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go w.Run(ctx)

	if cfg.PubSub.ProjectID != "" && cfg.PubSub.ControlSubscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.ControlSubscription,
			Worker:           w,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// dialSinks connects every sink with settings present. A sink that fails to
// connect is logged and skipped.
func dialSinks(ctx context.Context, cfg config.Config, log zerolog.Logger) []publish.Publisher {
	var sinks []publish.Publisher

	if cfg.MQTT.Enabled() {
		p, err := publish.DialMQTT(cfg.MQTT, log)
		if err != nil {
			log.Error().Err(err).Msg("mqtt sink unavailable")
		} else {
			sinks = append(sinks, p)
		}
	}

	if cfg.Influx.Enabled() {
		p, err := publish.DialInflux(cfg.Influx)
		if err != nil {
			log.Error().Err(err).Msg("influx sink unavailable")
		} else {
			sinks = append(sinks, p)
		}
	}

	if cfg.Kafka.Enabled() {
		sinks = append(sinks, publish.NewKafkaPublisher(publish.NewKafkaWriter(cfg.Kafka)))
	}

	if cfg.PubSub.ProjectID != "" && cfg.PubSub.ReadingsTopic != "" {
		p, err := publish.DialPubSub(ctx, cfg.PubSub.ProjectID, cfg.PubSub.ReadingsTopic)
		if err != nil {
			log.Error().Err(err).Msg("pubsub sink unavailable")
		} else {
			sinks = append(sinks, p)
		}
	}

	for _, s := range sinks {
		log.Info().Str("sink", s.Name()).Msg("sink connected")
	}
	return sinks
}
