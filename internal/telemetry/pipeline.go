package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Pipeline instrument names.
const (
	MetricFeedFetches         = "statuswatch.feed.fetches"
	MetricFeedFetchDuration   = "statuswatch.feed.fetch.duration"
	MetricIncidentsNormalized = "statuswatch.incidents.normalized"
)

// PipelineMetrics records per-provider feed fetches of the snapshot builder.
type PipelineMetrics struct {
	fetches   metric.Int64Counter
	duration  metric.Float64Histogram
	incidents metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	fetches, err := meter.Int64Counter(MetricFeedFetches,
		metric.WithDescription("Feed fetches by provider and result"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(MetricFeedFetchDuration,
		metric.WithDescription("Feed fetch latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	incidents, err := meter.Int64Counter(MetricIncidentsNormalized,
		metric.WithDescription("Incidents normalized from feed entries"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{fetches: fetches, duration: duration, incidents: incidents}, nil
}

// ObserveFetch records one feed fetch.
func (m *PipelineMetrics) ObserveFetch(ctx context.Context, provider string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("result", result),
	)
	m.fetches.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// ObserveIncidents records n incidents normalized for provider.
func (m *PipelineMetrics) ObserveIncidents(ctx context.Context, provider string, n int) {
	m.incidents.Add(ctx, int64(n), metric.WithAttributes(attribute.String("provider", provider)))
}
