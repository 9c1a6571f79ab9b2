package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/feed/httpfeed"
	"github.com/statuswatch/statuswatch/internal/metrics"
	"github.com/statuswatch/statuswatch/internal/provider"
	"github.com/statuswatch/statuswatch/internal/provider/resilience"
	"github.com/statuswatch/statuswatch/internal/tracker"
)

var (
	trackProviders   []string
	trackAll         bool
	trackInterval    time.Duration
	trackMetricsAddr string
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Poll provider feeds and print new incidents",
	Long: `Poll provider feeds and print new incidents.

The first successful poll of each feed prints its latest incident and records
everything it contains; later polls print only incidents not seen before.`,
	Args: cobra.NoArgs,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringSliceVarP(&trackProviders, "provider", "p", []string{"openai"}, "provider to track (repeatable)")
	trackCmd.Flags().BoolVar(&trackAll, "all", false, "track every configured provider")
	trackCmd.Flags().DurationVar(&trackInterval, "interval", tracker.DefaultInterval, "time between polls")
	trackCmd.Flags().StringVar(&trackMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func runTrack(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	selected, err := selectProviders(registry, trackProviders, trackAll)
	if err != nil {
		return err
	}

	source := httpfeed.New(httpfeed.Config{
		Registry: resilience.NewRegistry(),
		Logger:   logger,
	})

	feeds := make([]tracker.Feed, 0, len(selected))
	urls := make([]string, 0, len(selected))
	for _, p := range selected {
		feeds = append(feeds, tracker.Feed{Provider: p.Name, Tracker: tracker.New(p.DisplayName, p.RSSFeed, source)})
		urls = append(urls, p.RSSFeed)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	var recorder tracker.Recorder
	if trackMetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.NewTrackerMetrics(reg)
		m.SetBuildInfo(Version)
		recorder = m

		srv := metrics.NewServer(trackMetricsAddr, reg, logger)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	out := cmd.OutOrStdout()
	if err := tracker.Banner(out, trackTitle(selected), urls, trackInterval); err != nil {
		return err
	}

	runner := tracker.NewRunner(tracker.RunnerConfig{
		Feeds:    feeds,
		Interval: trackInterval,
		Notifier: tracker.NewConsoleNotifier(out),
		Recorder: recorder,
		Logger:   logger,
	})
	return runner.Run(ctx)
}

func selectProviders(registry *provider.Registry, names []string, all bool) ([]provider.Provider, error) {
	if all {
		return registry.All(), nil
	}
	if len(names) == 0 {
		return nil, errors.New("no providers selected")
	}

	subset, err := registry.Subset(names...)
	if err != nil {
		return nil, err
	}
	return subset.All(), nil
}

func trackTitle(providers []provider.Provider) string {
	if len(providers) == 1 {
		return providers[0].DisplayName + " Status Tracker"
	}
	return "AI Status Tracker"
}
