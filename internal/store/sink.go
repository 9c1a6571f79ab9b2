package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/statuswatch/statuswatch/internal/snapshot"
)

// SnapshotSink archives every snapshot's incidents into a Repository.
type SnapshotSink struct {
	repo   Repository
	logger zerolog.Logger
}

var _ snapshot.Sink = (*SnapshotSink)(nil)

// NewSnapshotSink wraps repo as a snapshot sink.
func NewSnapshotSink(repo Repository, logger zerolog.Logger) *SnapshotSink {
	return &SnapshotSink{repo: repo, logger: logger}
}

// Name implements snapshot.Sink.
func (s *SnapshotSink) Name() string { return "archive" }

// Publish implements snapshot.Sink.
func (s *SnapshotSink) Publish(ctx context.Context, snap *snapshot.Snapshot) error {
	incidents := snap.Incidents.Incidents
	if err := s.repo.UpsertIncidents(ctx, incidents); err != nil {
		return fmt.Errorf("archiving incidents: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting archive: %w", err)
	}

	s.logger.Debug().
		Int("incidents", len(incidents)).
		Int("archived", total).
		Msg("snapshot archived")
	return nil
}
