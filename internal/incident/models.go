// Package incident turns raw feed entries into normalized incident records.
package incident

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTitle is used when an entry has no title.
	DefaultTitle = "Unknown Incident"

	// StatusOperational is the normalized status when no status tag is present.
	StatusOperational = "operational"

	// StatusUnknown is reported for a provider whose feed could not be fetched.
	StatusUnknown = "unknown"

	// LiveStatusDefault is the live rendering of a missing status label.
	LiveStatusDefault = "Unknown"

	// MaxMessageLength bounds Message, in characters.
	MaxMessageLength = 500
)

// Timestamp layouts.
const (
	BatchLayout = "2006-01-02T15:04:05"
	LiveLayout  = "2006-01-02 15:04:05"
)

// Time fallback errors.
var (
	ErrTimeMissing    = errors.New("published time missing")
	ErrTimeOutOfRange = errors.New("published time out of range")
)

// Incident is the normalized record derived from one feed entry.
// Values are never modified after Normalize returns them.
type Incident struct {
	// Seq is the 1-based position of the incident within its provider's fetch.
	// Zero outside batch snapshots.
	Seq int

	// Identifier is the entry's dedup key; empty when the entry had none.
	Identifier string

	// Provider is the provider key that produced the entry.
	Provider string

	Title string

	// Status is the normalized status token, e.g. "degraded_performance".
	Status string

	// StatusLabel is the status text as it appeared in the feed, trimmed.
	// Empty when the entry carried no status tag.
	StatusLabel string

	// Message is the cleaned description body; empty means absent.
	Message string

	AffectedProducts []string

	// Timestamp is UTC with second precision.
	Timestamp time.Time

	// ResolvedAt is reserved and never set.
	ResolvedAt *time.Time
}

// HasIdentifier reports whether the incident carries a dedup key.
func (i Incident) HasIdentifier() bool {
	return i.Identifier != ""
}

type incidentJSON struct {
	ID               int      `json:"id"`
	IncidentID       *string  `json:"incident_id"`
	Provider         string   `json:"provider"`
	Title            string   `json:"title"`
	Status           string   `json:"status"`
	Message          *string  `json:"message"`
	AffectedProducts []string `json:"affected_products"`
	Timestamp        string   `json:"timestamp"`
	ResolvedAt       *string  `json:"resolved_at"`
}

// MarshalJSON renders the incident in the published document form.
func (i Incident) MarshalJSON() ([]byte, error) {
	out := incidentJSON{
		ID:               i.Seq,
		Provider:         i.Provider,
		Title:            i.Title,
		Status:           i.Status,
		AffectedProducts: i.AffectedProducts,
		Timestamp:        StyleBatch.Timestamp(i.Timestamp),
	}
	if out.AffectedProducts == nil {
		out.AffectedProducts = []string{}
	}
	if i.Identifier != "" {
		id := i.Identifier
		out.IncidentID = &id
	}
	if i.Message != "" {
		msg := i.Message
		out.Message = &msg
	}
	if i.ResolvedAt != nil {
		resolved := StyleBatch.Timestamp(*i.ResolvedAt)
		out.ResolvedAt = &resolved
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the published document form. Both timestamp layouts
// are accepted.
func (i *Incident) UnmarshalJSON(data []byte) error {
	var in incidentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	ts, err := ParseTimestamp(in.Timestamp)
	if err != nil {
		return fmt.Errorf("incident timestamp: %w", err)
	}

	*i = Incident{
		Seq:              in.ID,
		Provider:         in.Provider,
		Title:            in.Title,
		Status:           in.Status,
		AffectedProducts: in.AffectedProducts,
		Timestamp:        ts,
	}
	if i.AffectedProducts == nil {
		i.AffectedProducts = []string{}
	}
	if in.IncidentID != nil {
		i.Identifier = *in.IncidentID
	}
	if in.Message != nil {
		i.Message = *in.Message
	}
	if in.ResolvedAt != nil {
		resolved, err := ParseTimestamp(*in.ResolvedAt)
		if err != nil {
			return fmt.Errorf("incident resolved_at: %w", err)
		}
		i.ResolvedAt = &resolved
	}
	return nil
}

// Fallback records which default paths Normalize took.
type Fallback uint8

const (
	FallbackIdentifier Fallback = 1 << iota
	FallbackTitle
	FallbackStatus
	FallbackTimeMissing
	FallbackTimeInvalid

	FallbackNone Fallback = 0
)

// Has reports whether every bit of f is set.
func (fb Fallback) Has(f Fallback) bool {
	return fb&f == f
}

// UsedProcessingTime reports whether the timestamp is the processing time.
func (fb Fallback) UsedProcessingTime() bool {
	return fb&(FallbackTimeMissing|FallbackTimeInvalid) != 0
}

func (fb Fallback) String() string {
	if fb == FallbackNone {
		return "none"
	}
	names := []struct {
		f    Fallback
		name string
	}{
		{FallbackIdentifier, "identifier"},
		{FallbackTitle, "title"},
		{FallbackStatus, "status"},
		{FallbackTimeMissing, "time_missing"},
		{FallbackTimeInvalid, "time_invalid"},
	}
	var s string
	for _, n := range names {
		if fb.Has(n.f) {
			if s != "" {
				s += ","
			}
			s += n.name
		}
	}
	return s
}
