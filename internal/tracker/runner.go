package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/statuswatch/statuswatch/internal/incident"
)

// DefaultInterval is the pause between polls.
const DefaultInterval = 60 * time.Second

// Poll outcomes passed to a Recorder.
const (
	PollNew         = "new"
	PollNoChange    = "no_change"
	PollNotModified = "not_modified"
	PollBaseline    = "baseline"
	PollError       = "error"
)

// Recorder observes poll outcomes, typically for metrics.
type Recorder interface {
	RecordPoll(provider, outcome string, duration time.Duration)
	RecordNew(provider string, count int)
	RecordSeen(provider string, count int)
}

// Feed pairs a tracker with the provider key its incidents are attributed to.
type Feed struct {
	Provider string
	Tracker  *Tracker
}

// RunnerConfig holds configuration for the live polling loop.
type RunnerConfig struct {
	Feeds []Feed

	// Interval between polls. Default: DefaultInterval.
	Interval time.Duration

	// Normalizer converts reported entries. Default: wall clock normalizer.
	Normalizer *incident.Normalizer

	Notifier Notifier

	// Recorder is optional.
	Recorder Recorder

	Logger zerolog.Logger
}

// Runner polls its feeds one at a time, sleeping between rounds.
type Runner struct {
	feeds      []Feed
	interval   time.Duration
	normalizer *incident.Normalizer
	notifier   Notifier
	recorder   Recorder
	logger     zerolog.Logger
}

// NewRunner creates a live polling loop.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = incident.NewNormalizer()
	}
	return &Runner{
		feeds:      cfg.Feeds,
		interval:   cfg.Interval,
		normalizer: cfg.Normalizer,
		notifier:   cfg.Notifier,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
	}
}

// Run polls until ctx is cancelled. Poll failures are logged and never end
// the loop.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().
		Int("feeds", len(r.feeds)).
		Dur("interval", r.interval).
		Msg("tracker started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("tracker stopped")
			return nil
		case <-timer.C:
		}

		r.PollOnce(ctx)
		timer.Reset(r.interval)
	}
}

// PollOnce runs one fetch-and-detect cycle over every feed and returns the
// number of new incidents reported.
func (r *Runner) PollOnce(ctx context.Context) int {
	total := 0
	for _, f := range r.feeds {
		if ctx.Err() != nil {
			return total
		}
		total += r.poll(ctx, f)
	}
	return total
}

func (r *Runner) poll(ctx context.Context, f Feed) int {
	t := f.Tracker
	start := time.Now()

	update, err := t.CheckForUpdates(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		r.record(f.Provider, PollError, time.Since(start))
		r.logger.Warn().
			Err(err).
			Str("provider", f.Provider).
			Str("feed", t.URL()).
			Msg("poll failed")
		return 0
	}

	outcome := PollNoChange
	switch {
	case update.NotModified:
		outcome = PollNotModified
	case update.Startup != nil:
		outcome = PollBaseline
		inc, _ := r.normalizer.Normalize(*update.Startup, f.Provider)
		r.notify(f, func() error { return r.notifier.Startup(t.Name(), inc) })
	case len(update.New) > 0:
		outcome = PollNew
	}

	for _, e := range update.New {
		inc, fb := r.normalizer.Normalize(e, f.Provider)
		if fb.Has(incident.FallbackIdentifier) {
			r.logger.Debug().Str("provider", f.Provider).Str("title", inc.Title).Msg("entry has no identifier")
		}
		r.notify(f, func() error { return r.notifier.Incident(t.Name(), inc) })
	}

	r.record(f.Provider, outcome, time.Since(start))
	if r.recorder != nil {
		r.recorder.RecordNew(f.Provider, len(update.New))
		r.recorder.RecordSeen(f.Provider, t.SeenCount())
	}

	if len(update.New) > 0 {
		r.logger.Info().
			Str("provider", f.Provider).
			Int("new", len(update.New)).
			Msg("new incidents")
	}
	return len(update.New)
}

func (r *Runner) notify(f Feed, fn func() error) {
	if r.notifier == nil {
		return
	}
	if err := fn(); err != nil {
		r.logger.Error().Err(err).Str("provider", f.Provider).Msg("notify failed")
	}
}

func (r *Runner) record(provider, outcome string, d time.Duration) {
	if r.recorder != nil {
		r.recorder.RecordPoll(provider, outcome, d)
	}
}
