// Package store archives normalized incidents across snapshot runs.
package store

import (
	"context"
	"time"

	"github.com/statuswatch/statuswatch/internal/incident"
)

// Filter narrows ListRecent results. Zero values mean no restriction.
type Filter struct {
	Provider string
	Since    time.Time
	Limit    int
}

// Repository persists incidents keyed by (provider, identifier).
type Repository interface {
	// UpsertIncidents inserts new incidents and refreshes known ones.
	// Incidents without an identifier are skipped.
	UpsertIncidents(ctx context.Context, incidents []incident.Incident) error

	// ListRecent returns archived incidents, newest first.
	ListRecent(ctx context.Context, filter Filter) ([]incident.Incident, error)

	// Count returns the number of archived incidents.
	Count(ctx context.Context) (int, error)
}

type key struct {
	provider   string
	identifier string
}

func archivable(incidents []incident.Incident) []incident.Incident {
	out := make([]incident.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if inc.HasIdentifier() {
			out = append(out, inc)
		}
	}
	return out
}
