package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/database"
	"github.com/statuswatch/statuswatch/internal/feed/httpfeed"
	"github.com/statuswatch/statuswatch/internal/incident"
	"github.com/statuswatch/statuswatch/internal/publish"
	"github.com/statuswatch/statuswatch/internal/snapshot"
	"github.com/statuswatch/statuswatch/internal/store"
	"github.com/statuswatch/statuswatch/internal/worker"
)

var (
	snapshotOut         string
	snapshotConcurrency int
	snapshotDatabase    bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch every provider once and write the status documents",
	Long: `Fetch every provider once and write providers.json, status.json,
incidents.json and analytics.json.

With --database the incidents are also archived to PostgreSQL, configured
through DATABASE_URL or the DB_* variables.`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapshotOut, "out", envOr("SNAPSHOT_DIR", publish.DefaultDir), "output directory")
	snapshotCmd.Flags().IntVar(&snapshotConcurrency, "concurrency", snapshot.DefaultConcurrency, "parallel feed fetches")
	snapshotCmd.Flags().BoolVar(&snapshotDatabase, "database", false, "archive incidents to PostgreSQL")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Starting status data fetch...")

	builder, err := snapshot.NewBuilder(snapshot.Config{
		Registry:    registry,
		Source:      httpfeed.New(httpfeed.Config{Logger: logger}),
		Normalizer:  incident.NewNormalizer(),
		Concurrency: snapshotConcurrency,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	sinks := []snapshot.Sink{publish.NewFileSink(snapshotOut, logger)}
	if snapshotDatabase {
		pool, err := database.Connect(ctx, database.ConfigFromEnv())
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := store.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store.NewSnapshotSink(repo, logger))
	}

	job, err := worker.NewSnapshotJob(worker.SnapshotJobConfig{
		Builder: builder,
		Sinks:   sinks,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	result, err := job.Run(ctx)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		if e.Stage == "publish" {
			return fmt.Errorf("publishing to %s: %s", e.Target, e.Error)
		}
	}

	return publish.WriteSummary(out, result.Snapshot)
}
