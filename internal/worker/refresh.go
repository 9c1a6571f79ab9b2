package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/statuswatch/statuswatch/internal/snapshot"
)

// ErrNoBuilder is returned by NewSnapshotJob without a builder.
var ErrNoBuilder = errors.New("snapshot job requires a builder")

// Builder builds one snapshot. *snapshot.Builder implements it.
type Builder interface {
	Build(ctx context.Context) (*snapshot.Snapshot, error)
}

// SnapshotJob builds a snapshot and fans it out to the holder and sinks.
type SnapshotJob struct {
	config  JobConfig
	builder Builder
	holder  *snapshot.Holder
	sinks   []snapshot.Sink
	logger  zerolog.Logger

	metrics *JobMetrics
}

// JobMetrics tracks snapshot job statistics.
type JobMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	FailedRuns      int64
	FetchFailures   int64
	SinkFailures    int64
	LastRunAt       time.Time
	LastRunDuration time.Duration
	LastIncidents   int
}

// SnapshotJobConfig holds configuration for creating a SnapshotJob.
type SnapshotJobConfig struct {
	Config  JobConfig
	Builder Builder

	// Holder, when set, receives every built snapshot before the sinks.
	Holder *snapshot.Holder

	Sinks  []snapshot.Sink
	Logger zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job.
func NewSnapshotJob(cfg SnapshotJobConfig) (*SnapshotJob, error) {
	if cfg.Builder == nil {
		return nil, ErrNoBuilder
	}
	return &SnapshotJob{
		config:  cfg.Config.withDefaults(),
		builder: cfg.Builder,
		holder:  cfg.Holder,
		sinks:   cfg.Sinks,
		logger:  cfg.Logger,
		metrics: &JobMetrics{},
	}, nil
}

// JobResult contains the result of one snapshot run.
type JobResult struct {
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
	Providers       int
	ProvidersFailed int
	Incidents       int
	SinksPublished  int
	SinksFailed     int
	Errors          []JobError
	Snapshot        *snapshot.Snapshot
}

// JobError describes one failed fetch or publish within a run.
type JobError struct {
	// Stage is "fetch" or "publish".
	Stage string

	// Target is the provider key or sink name.
	Target string

	Error string
}

// Healthy reports whether at most half of the providers failed to fetch.
func (r *JobResult) Healthy() bool {
	return r.ProvidersFailed <= r.Providers-r.ProvidersFailed
}

// Run builds one snapshot and publishes it. The returned error is non-nil
// only when the build itself failed; fetch and sink failures are reported
// in the result.
func (j *SnapshotJob) Run(ctx context.Context) (*JobResult, error) {
	start := time.Now()
	result := &JobResult{StartTime: start}

	j.logger.Info().Int("sinks", len(j.sinks)).Msg("starting snapshot job")

	snap, err := j.build(ctx)
	if err != nil {
		j.recordFailure()
		return nil, fmt.Errorf("snapshot job: %w", err)
	}
	result.Snapshot = snap
	result.Providers = len(snap.Status.Providers)
	result.Incidents = snap.Incidents.Count

	for name, ps := range snap.Status.Providers {
		if ps.FetchError != "" {
			result.ProvidersFailed++
			result.Errors = append(result.Errors, JobError{Stage: "fetch", Target: name, Error: ps.FetchError})
		}
	}

	if j.holder != nil {
		j.holder.Store(snap)
	}

	for _, sink := range j.sinks {
		if err := j.publish(ctx, sink, snap); err != nil {
			result.SinksFailed++
			result.Errors = append(result.Errors, JobError{Stage: "publish", Target: sink.Name(), Error: err.Error()})
			j.logger.Error().Err(err).Str("sink", sink.Name()).Msg("sink publish failed")
			continue
		}
		result.SinksPublished++
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("providers", result.Providers).
		Int("providers_failed", result.ProvidersFailed).
		Int("incidents", result.Incidents).
		Int("sinks_published", result.SinksPublished).
		Int("sinks_failed", result.SinksFailed).
		Msg("snapshot job completed")

	return result, nil
}

// Schedule runs the job now and then every interval until ctx is cancelled.
// A zero interval uses the configured one.
func (j *SnapshotJob) Schedule(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = j.config.Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error().Err(err).Msg("snapshot job failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// build bounds only the fetch phase by Timeout. Feeds still outstanding at
// the deadline come back as unknown providers and the sinks get their own
// SinkTimeout from the caller's context.
func (j *SnapshotJob) build(ctx context.Context) (*snapshot.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()
	return j.builder.Build(ctx)
}

func (j *SnapshotJob) publish(ctx context.Context, sink snapshot.Sink, snap *snapshot.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.SinkTimeout)
	defer cancel()
	return sink.Publish(ctx, snap)
}

func (j *SnapshotJob) recordFailure() {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()
	j.metrics.TotalRuns++
	j.metrics.FailedRuns++
}

func (j *SnapshotJob) updateMetrics(result *JobResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.FetchFailures += int64(result.ProvidersFailed)
	j.metrics.SinkFailures += int64(result.SinksFailed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.LastIncidents = result.Incidents
}

// GetMetrics returns a copy of the current metrics.
func (j *SnapshotJob) GetMetrics() JobMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return JobMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		FailedRuns:      j.metrics.FailedRuns,
		FetchFailures:   j.metrics.FetchFailures,
		SinkFailures:    j.metrics.SinkFailures,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		LastIncidents:   j.metrics.LastIncidents,
	}
}

// MetricsSnapshot returns the current metrics as a map for health output.
func (j *SnapshotJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"failed_runs":       m.FailedRuns,
		"fetch_failures":    m.FetchFailures,
		"sink_failures":     m.SinkFailures,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"last_incidents":    m.LastIncidents,
	}
}
