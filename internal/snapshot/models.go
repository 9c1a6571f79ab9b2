// Package snapshot builds the batch view of every tracked provider: current
// status, recent incidents and uptime analytics.
package snapshot

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/incident"
	"github.com/statuswatch/statuswatch/internal/provider"
)

// ProvidersDocument lists the configured providers.
type ProvidersDocument struct {
	Providers []provider.Provider `json:"providers"`
	Count     int                 `json:"count"`
}

// ProviderStatus is a provider's configuration merged with its latest status.
type ProviderStatus struct {
	provider.Provider
	CurrentStatus  string     `json:"current_status"`
	LastChecked    time.Time  `json:"-"`
	TotalIncidents int        `json:"total_incidents"`
	LastIncidentAt *time.Time `json:"-"`

	// FetchError is set when the feed could not be read.
	FetchError string `json:"-"`
}

// MarshalJSON flattens the provider fields and renders times in the batch layout.
func (s ProviderStatus) MarshalJSON() ([]byte, error) {
	type flat struct {
		provider.Provider
		CurrentStatus  string  `json:"current_status"`
		LastChecked    string  `json:"last_checked"`
		TotalIncidents int     `json:"total_incidents"`
		LastIncidentAt *string `json:"last_incident_at"`
	}
	out := flat{
		Provider:       s.Provider,
		CurrentStatus:  s.CurrentStatus,
		LastChecked:    incident.StyleBatch.Timestamp(s.LastChecked),
		TotalIncidents: s.TotalIncidents,
	}
	if s.LastIncidentAt != nil {
		ts := incident.StyleBatch.Timestamp(*s.LastIncidentAt)
		out.LastIncidentAt = &ts
	}
	return json.Marshal(out)
}

// StatusDocument maps provider names to their status.
type StatusDocument struct {
	Providers   map[string]ProviderStatus `json:"providers"`
	Count       int                       `json:"count"`
	LastUpdated Timestamp                 `json:"last_updated"`
}

// IncidentsDocument holds the most recent incidents across all providers,
// newest first.
type IncidentsDocument struct {
	Incidents   []incident.Incident `json:"incidents"`
	Count       int                 `json:"count"`
	LastUpdated Timestamp           `json:"last_updated"`
}

// AnalyticsDocument holds one analytics window per period key ("7d", ...).
type AnalyticsDocument struct {
	Periods     map[string]analytics.Window `json:"periods"`
	LastUpdated Timestamp                   `json:"last_updated"`
}

// Timestamp marshals as a batch-layout time string.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(incident.StyleBatch.Timestamp(time.Time(t)))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := incident.ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Snapshot is the result of one batch build.
type Snapshot struct {
	GeneratedAt time.Time
	Providers   ProvidersDocument
	Status      StatusDocument
	Incidents   IncidentsDocument
	Analytics   AnalyticsDocument
}

// Sink receives completed snapshots.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap *Snapshot) error
}

// Holder keeps the most recent snapshot for concurrent readers.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Latest returns the current snapshot, or nil before the first Store.
func (h *Holder) Latest() *Snapshot {
	return h.current.Load()
}

// Store replaces the current snapshot.
func (h *Holder) Store(snap *Snapshot) {
	h.current.Store(snap)
}

// Name implements Sink.
func (h *Holder) Name() string { return "memory" }

// Publish implements Sink by storing the snapshot.
func (h *Holder) Publish(_ context.Context, snap *Snapshot) error {
	h.Store(snap)
	return nil
}
