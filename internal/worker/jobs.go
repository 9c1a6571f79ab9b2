package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/statuswatch/statuswatch/internal/feed"
	"github.com/statuswatch/statuswatch/internal/provider"
)

// ErrInvalidJob marks messages that can never succeed. They are acknowledged
// so they are not redelivered.
var ErrInvalidJob = errors.New("invalid job message")

// JobMessage is the payload of a job message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Provider selects the feed probed by a health check.
	// Default: first provider of the registry.
	Provider string `json:"provider,omitempty"`
}

// Dispatcher runs job messages against a snapshot job.
type Dispatcher struct {
	job      *SnapshotJob
	registry *provider.Registry
	source   feed.Source
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher. Health checks fetch through source.
func NewDispatcher(job *SnapshotJob, registry *provider.Registry, source feed.Source, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		job:      job,
		registry: registry,
		source:   source,
		timeout:  job.config.HealthCheckTimeout,
		logger:   logger,
	}
}

// Handle decodes and runs one job message.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	switch msg.JobType {
	case JobSnapshotRefresh:
		return d.refresh(ctx)
	case JobHealthCheck:
		return d.healthCheck(ctx, msg.Provider)
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrInvalidJob, msg.JobType)
	}
}

func (d *Dispatcher) refresh(ctx context.Context) error {
	result, err := d.job.Run(ctx)
	if err != nil {
		return err
	}
	if !result.Healthy() {
		return fmt.Errorf("too many fetch failures: %d/%d", result.ProvidersFailed, result.Providers)
	}
	return nil
}

func (d *Dispatcher) healthCheck(ctx context.Context, name string) error {
	var p provider.Provider
	if name == "" {
		all := d.registry.All()
		if len(all) == 0 {
			return fmt.Errorf("%w: no providers configured", ErrInvalidJob)
		}
		p = all[0]
	} else {
		var ok bool
		if p, ok = d.registry.Get(name); !ok {
			return fmt.Errorf("%w: unknown provider %q", ErrInvalidJob, name)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := d.source.Fetch(ctx, p.RSSFeed, feed.Validators{})
	if err != nil {
		return fmt.Errorf("health check %s: %w", p.Name, err)
	}

	d.logger.Debug().
		Str("provider", p.Name).
		Int("entries", len(result.Entries)).
		Msg("health check passed")
	return nil
}
