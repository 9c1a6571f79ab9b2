// Package metrics provides Prometheus metrics for the live tracker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/statuswatch/statuswatch/internal/tracker"
)

const (
	namespace = "statuswatch"
	subsystem = "tracker"
)

// TrackerMetrics implements tracker.Recorder on a Prometheus registry.
type TrackerMetrics struct {
	polls        *prometheus.CounterVec
	pollDuration *prometheus.HistogramVec
	newIncidents *prometheus.CounterVec
	seen         *prometheus.GaugeVec
	buildInfo    *prometheus.GaugeVec
}

var _ tracker.Recorder = (*TrackerMetrics)(nil)

// NewTrackerMetrics registers the tracker collectors on reg.
func NewTrackerMetrics(reg prometheus.Registerer) *TrackerMetrics {
	factory := promauto.With(reg)

	return &TrackerMetrics{
		// polls_total counts feed polls by provider and outcome.
		polls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "polls_total",
				Help:      "Total number of feed polls",
			},
			[]string{"provider", "result"},
		),

		pollDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "poll_duration_seconds",
				Help:      "Feed poll latency in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),

		newIncidents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "new_incidents_total",
				Help:      "Total number of new incidents detected",
			},
			[]string{"provider"},
		),

		seen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "seen_identifiers",
				Help:      "Number of entry identifiers remembered per feed",
			},
			[]string{"provider"},
		),

		buildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_info",
				Help:      "Build information",
			},
			[]string{"version"},
		),
	}
}

// RecordPoll implements tracker.Recorder.
func (m *TrackerMetrics) RecordPoll(provider, outcome string, duration time.Duration) {
	m.polls.WithLabelValues(provider, outcome).Inc()
	m.pollDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordNew implements tracker.Recorder.
func (m *TrackerMetrics) RecordNew(provider string, count int) {
	m.newIncidents.WithLabelValues(provider).Add(float64(count))
}

// RecordSeen implements tracker.Recorder.
func (m *TrackerMetrics) RecordSeen(provider string, count int) {
	m.seen.WithLabelValues(provider).Set(float64(count))
}

// SetBuildInfo sets the build info metric.
func (m *TrackerMetrics) SetBuildInfo(version string) {
	m.buildInfo.WithLabelValues(version).Set(1)
}
