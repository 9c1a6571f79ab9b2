// Package main provides the entrypoint for the statuswatch background worker.
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

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/statuswatch/statuswatch/internal/api/response"
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
	const serviceName = "statuswatch-worker"

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

	log.Info().Str("build_time", BuildTime).Msg("starting statuswatch worker")

	// Worker also exposes a health endpoint for Cloud Run.
	port := getEnv("PORT", "8080")

	jobConfig := worker.DefaultJobConfig()
	if v := os.Getenv("WORKER_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid WORKER_INTERVAL")
		}
		jobConfig.Interval = interval
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version))
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

	pipelineMetrics, err := telemetry.NewPipelineMetrics(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline metrics")
	}

	registry, err := provider.LoadOrDefault(os.Getenv("PROVIDERS_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load providers")
	}

	source := httpfeed.New(httpfeed.Config{Registry: resilience.NewRegistry(), Logger: log})
	builder, err := snapshot.NewBuilder(snapshot.Config{
		Registry:   registry,
		Source:     source,
		Normalizer: incident.NewNormalizer(),
		Observer:   pipelineMetrics,
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create snapshot builder")
	}

	sinks := []snapshot.Sink{publish.NewFileSink(getEnv("SNAPSHOT_DIR", publish.DefaultDir), log)}
	if archive, _ := strconv.ParseBool(os.Getenv("ARCHIVE_ENABLED")); archive {
		pool, err := database.Connect(ctx, database.ConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		repo := store.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create incident schema")
		}
		sinks = append(sinks, store.NewSnapshotSink(repo, log))
	}

	job, err := worker.NewSnapshotJob(worker.SnapshotJobConfig{
		Config:  jobConfig,
		Builder: builder,
		Sinks:   sinks,
		Logger:  log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create snapshot job")
	}

	if subscription := os.Getenv("PUBSUB_SUBSCRIPTION"); subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        os.Getenv("GCP_PROJECT_ID"),
			SubscriptionName: subscription,
			Dispatcher:       worker.NewDispatcher(job, registry, source, log),
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
				stop()
			}
		}()
	} else {
		log.Info().Dur("interval", jobConfig.Interval).Msg("no subscription configured, running on a schedule")
		go job.Schedule(ctx, jobConfig.Interval)
	}

	mux := chi.NewRouter()
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"job":     job.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
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

	<-ctx.Done()
	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
