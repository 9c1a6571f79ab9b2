// Package main provides the entrypoint for the statuswatch API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/statuswatch/statuswatch/internal/api"
	"github.com/statuswatch/statuswatch/internal/api/middleware"
	"github.com/statuswatch/statuswatch/internal/database"
	"github.com/statuswatch/statuswatch/internal/feed/httpfeed"
	"github.com/statuswatch/statuswatch/internal/incident"
	"github.com/statuswatch/statuswatch/internal/logging"
	"github.com/statuswatch/statuswatch/internal/provider"
	"github.com/statuswatch/statuswatch/internal/provider/resilience"
	"github.com/statuswatch/statuswatch/internal/publish"
	"github.com/statuswatch/statuswatch/internal/snapshot"
	"github.com/statuswatch/statuswatch/internal/store"
	"github.com/statuswatch/statuswatch/internal/telemetry"
	"github.com/statuswatch/statuswatch/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "statuswatch-api"

	log, err := logging.New(logging.Config{
		Level:   getEnv("LOG_LEVEL", "info"),
		Format:  logging.FormatFor(os.Getenv("ENVIRONMENT")),
		Service: serviceName,
		Version: Version,
		Output:  os.Stdout,
	})
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("invalid logging configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting statuswatch api")

	port := getEnv("PORT", "8080")

	refreshInterval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "5m"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REFRESH_INTERVAL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	telemetryConfig := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryConfig)
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

	if telemetryConfig.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryConfig.OTLPEndpoint).
			Msg("opentelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	pipelineMetrics, err := telemetry.NewPipelineMetrics(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline metrics")
	}

	registry, err := provider.LoadOrDefault(os.Getenv("PROVIDERS_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load providers")
	}

	feeds := resilience.NewRegistry()
	builder, err := snapshot.NewBuilder(snapshot.Config{
		Registry:   registry,
		Source:     httpfeed.New(httpfeed.Config{Registry: feeds, Logger: log}),
		Normalizer: incident.NewNormalizer(),
		Observer:   pipelineMetrics,
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create snapshot builder")
	}

	var sinks []snapshot.Sink
	var archive store.Repository
	if dir := os.Getenv("SNAPSHOT_DIR"); dir != "" {
		sinks = append(sinks, publish.NewFileSink(dir, log))
	}
	if enabled, _ := strconv.ParseBool(os.Getenv("ARCHIVE_ENABLED")); enabled {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		repo := store.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create incident schema")
		}
		sinks = append(sinks, store.NewSnapshotSink(repo, log))
		archive = repo
		log.Info().Str("host", dbConfig.Host).Str("database", dbConfig.Database).Msg("incident archive enabled")
	}

	holder := snapshot.NewHolder()
	job, err := worker.NewSnapshotJob(worker.SnapshotJobConfig{
		Builder: builder,
		Holder:  holder,
		Sinks:   sinks,
		Logger:  log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create snapshot job")
	}
	go job.Schedule(ctx, refreshInterval)

	requireTLS, _ := strconv.ParseBool(os.Getenv("REQUIRE_TLS"))
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		RequireTLS:  requireTLS,
		Snapshots:   holder,
		Feeds:       feeds,
		Archive:     archive,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Dur("refresh_interval", refreshInterval).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
