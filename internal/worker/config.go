// Package worker runs snapshot builds in the background, on a schedule or
// triggered by Pub/Sub job messages.
package worker

import (
	"time"
)

// Job types accepted on the job subscription.
const (
	JobSnapshotRefresh = "snapshot_refresh"
	JobHealthCheck     = "health_check"
)

// JobConfig holds configuration for snapshot jobs.
type JobConfig struct {
	// Timeout bounds the feed fetches of one build.
	// Default: 2 minutes
	Timeout time.Duration

	// SinkTimeout bounds each sink publish.
	// Default: 30 seconds
	SinkTimeout time.Duration

	// HealthCheckTimeout bounds the single feed fetch of a health check.
	// Default: 10 seconds
	HealthCheckTimeout time.Duration

	// Interval is the schedule used when no subscription is configured.
	// Default: 5 minutes
	Interval time.Duration
}

// DefaultJobConfig returns the default job configuration.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		Timeout:            2 * time.Minute,
		SinkTimeout:        30 * time.Second,
		HealthCheckTimeout: 10 * time.Second,
		Interval:           5 * time.Minute,
	}
}

// withDefaults fills zero fields from DefaultJobConfig.
func (c JobConfig) withDefaults() JobConfig {
	d := DefaultJobConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = d.SinkTimeout
	}
	if c.HealthCheckTimeout <= 0 {
		c.HealthCheckTimeout = d.HealthCheckTimeout
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	return c
}
