package incident

import (
	"errors"
	"time"

	"github.com/statuswatch/statuswatch/internal/feed"
)

// ResolveIdentifier returns the entry's dedup key: its id, else its link,
// else its guid.
func ResolveIdentifier(e feed.Entry) (string, bool) {
	for _, candidate := range []string{e.ID, e.Link, e.GUID} {
		if candidate != "" {
			return candidate, true
		}
	}
	return "", false
}

// Normalizer converts feed entries to incidents.
type Normalizer struct {
	// Now supplies the processing time used when an entry has no usable
	// publish time. Defaults to time.Now.
	Now func() time.Time
}

// NewNormalizer returns a Normalizer on the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize builds the incident for entry e of the given provider. It never
// fails; every default taken is reported in the returned Fallback.
func (n *Normalizer) Normalize(e feed.Entry, provider string) (Incident, Fallback) {
	fallback := FallbackNone

	id, ok := ResolveIdentifier(e)
	if !ok {
		fallback |= FallbackIdentifier
	}

	title := e.Title
	if title == "" {
		title = DefaultTitle
		fallback |= FallbackTitle
	}

	status := StatusOperational
	label, ok := ExtractStatus(e.Description)
	if ok {
		status = NormalizeStatus(label)
	} else {
		fallback |= FallbackStatus
	}

	ts, err := TimestampFromParts(e.Published)
	if err != nil {
		if errors.Is(err, ErrTimeMissing) {
			fallback |= FallbackTimeMissing
		} else {
			fallback |= FallbackTimeInvalid
		}
		ts = n.now()
	}

	return Incident{
		Identifier:       id,
		Provider:         provider,
		Title:            title,
		Status:           status,
		StatusLabel:      label,
		Message:          CleanMessage(e.Description, label),
		AffectedProducts: ExtractProducts(e.Description),
		Timestamp:        ts,
	}, fallback
}

// NormalizeAll normalizes entries in order and numbers them from 1.
func (n *Normalizer) NormalizeAll(entries []feed.Entry, provider string) []Incident {
	incidents := make([]Incident, 0, len(entries))
	for _, e := range entries {
		inc, _ := n.Normalize(e, provider)
		inc.Seq = len(incidents) + 1
		incidents = append(incidents, inc)
	}
	return incidents
}

func (n *Normalizer) now() time.Time {
	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}
	return now().UTC().Truncate(time.Second)
}
