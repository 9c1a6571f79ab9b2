package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/feed"
	"github.com/statuswatch/statuswatch/internal/incident"
	"github.com/statuswatch/statuswatch/internal/provider"
)

// Defaults for Config.
const (
	DefaultConcurrency   = 4
	DefaultEntryLimit    = 20
	DefaultIncidentLimit = 100
)

// ErrNoRegistry is returned by NewBuilder without a provider registry.
var ErrNoRegistry = errors.New("snapshot builder requires a provider registry")

// FetchObserver is notified of every provider fetch. Implemented by
// telemetry.PipelineMetrics.
type FetchObserver interface {
	ObserveFetch(ctx context.Context, provider string, duration time.Duration, err error)
	ObserveIncidents(ctx context.Context, provider string, count int)
}

// Config holds configuration for the snapshot builder.
type Config struct {
	Registry *provider.Registry
	Source   feed.Source

	// Normalizer converts entries; its clock also stamps the snapshot.
	Normalizer *incident.Normalizer

	// Concurrency bounds parallel fetches. 1 fetches sequentially.
	Concurrency int

	// EntryLimit caps entries taken from each feed.
	EntryLimit int

	// IncidentLimit caps the merged incident list.
	IncidentLimit int

	// Periods are the analytics windows in days. Default: analytics.DefaultPeriods.
	Periods []int

	// Observer is optional.
	Observer FetchObserver

	Logger zerolog.Logger
}

// Builder produces snapshots from the configured feeds.
type Builder struct {
	registry      *provider.Registry
	source        feed.Source
	normalizer    *incident.Normalizer
	concurrency   int
	entryLimit    int
	incidentLimit int
	periods       []int
	observer      FetchObserver
	logger        zerolog.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(cfg Config) (*Builder, error) {
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	if cfg.Source == nil {
		return nil, errors.New("snapshot builder requires a feed source")
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = incident.NewNormalizer()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.EntryLimit <= 0 {
		cfg.EntryLimit = DefaultEntryLimit
	}
	if cfg.IncidentLimit <= 0 {
		cfg.IncidentLimit = DefaultIncidentLimit
	}
	if len(cfg.Periods) == 0 {
		cfg.Periods = analytics.DefaultPeriods
	}

	return &Builder{
		registry:      cfg.Registry,
		source:        cfg.Source,
		normalizer:    cfg.Normalizer,
		concurrency:   cfg.Concurrency,
		entryLimit:    cfg.EntryLimit,
		incidentLimit: cfg.IncidentLimit,
		periods:       cfg.Periods,
		observer:      cfg.Observer,
		logger:        cfg.Logger,
	}, nil
}

// Registry returns the provider table the builder reads.
func (b *Builder) Registry() *provider.Registry {
	return b.registry
}

// providerResult is the outcome for one provider.
type providerResult struct {
	incidents   []incident.Incident
	lastChecked time.Time
	err         error
}

// Build fetches every provider and assembles a snapshot. A provider whose
// feed fails, or whose fetch is cut off by the deadline of ctx, is reported
// with status "unknown". Only cancellation of ctx aborts the build.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	providers := b.registry.All()
	results := make([]providerResult, len(providers))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i := range providers {
		i := i
		g.Go(func() error {
			results[i] = b.fetchProvider(gCtx, providers[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}

	return b.assemble(providers, results)
}

func (b *Builder) fetchProvider(ctx context.Context, p provider.Provider) providerResult {
	start := time.Now()
	res, err := b.source.Fetch(ctx, p.RSSFeed, feed.Validators{})
	if b.observer != nil {
		b.observer.ObserveFetch(ctx, p.Name, time.Since(start), err)
	}
	checked := b.now()

	if err != nil {
		b.logger.Warn().
			Err(err).
			Str("provider", p.Name).
			Str("feed", p.RSSFeed).
			Msg("provider fetch failed")
		return providerResult{lastChecked: checked, err: err}
	}

	var entries []feed.Entry
	if res != nil {
		entries = res.Entries
	}
	if len(entries) > b.entryLimit {
		entries = entries[:b.entryLimit]
	}

	incidents := b.normalizer.NormalizeAll(entries, p.Name)
	if b.observer != nil {
		b.observer.ObserveIncidents(ctx, p.Name, len(incidents))
	}

	b.logger.Debug().
		Str("provider", p.Name).
		Int("incidents", len(incidents)).
		Dur("duration", time.Since(start)).
		Msg("provider fetched")

	return providerResult{incidents: incidents, lastChecked: checked}
}

func (b *Builder) assemble(providers []provider.Provider, results []providerResult) (*Snapshot, error) {
	generated := b.now()

	status := make(map[string]ProviderStatus, len(providers))
	var all []incident.Incident
	for i, p := range providers {
		r := results[i]
		ps := ProviderStatus{
			Provider:       p,
			CurrentStatus:  incident.StatusOperational,
			LastChecked:    r.lastChecked,
			TotalIncidents: len(r.incidents),
		}
		switch {
		case r.err != nil:
			ps.CurrentStatus = incident.StatusUnknown
			ps.FetchError = r.err.Error()
		case len(r.incidents) > 0:
			ps.CurrentStatus = r.incidents[0].Status
			ts := r.incidents[0].Timestamp
			ps.LastIncidentAt = &ts
		}
		status[p.Name] = ps
		all = append(all, r.incidents...)
	}

	recent := MostRecent(all, b.incidentLimit)

	periods, err := analytics.Periods(recent, b.registry.Names(), generated, b.periods...)
	if err != nil {
		return nil, fmt.Errorf("computing analytics: %w", err)
	}

	return &Snapshot{
		GeneratedAt: generated,
		Providers: ProvidersDocument{
			Providers: providers,
			Count:     len(providers),
		},
		Status: StatusDocument{
			Providers:   status,
			Count:       len(status),
			LastUpdated: Timestamp(generated),
		},
		Incidents: IncidentsDocument{
			Incidents:   recent,
			Count:       len(recent),
			LastUpdated: Timestamp(generated),
		},
		Analytics: AnalyticsDocument{
			Periods:     periods,
			LastUpdated: Timestamp(generated),
		},
	}, nil
}

// MostRecent returns up to limit incidents sorted newest first. Incidents
// with equal timestamps keep their input order. The input is not modified.
func MostRecent(incidents []incident.Incident, limit int) []incident.Incident {
	sorted := make([]incident.Incident, len(incidents))
	copy(sorted, incidents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func (b *Builder) now() time.Time {
	now := time.Now
	if b.normalizer.Now != nil {
		now = b.normalizer.Now
	}
	return now().UTC().Truncate(time.Second)
}
