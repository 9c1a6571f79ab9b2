package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/statuswatch/statuswatch/internal/feed"
)

// ErrNoSource is returned by CheckForUpdates when the tracker has no source.
var ErrNoSource = errors.New("tracker has no feed source")

// State is the lifecycle phase of a Tracker.
type State int

const (
	// StatePriming is the initial state: the first successful fetch only
	// establishes a baseline.
	StatePriming State = iota

	// StateSteady reports entries not seen before. There is no way back to
	// StatePriming.
	StateSteady
)

func (s State) String() string {
	switch s {
	case StatePriming:
		return "priming"
	case StateSteady:
		return "steady"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Update is the outcome of one poll.
type Update struct {
	// New holds newly observed entries, oldest first.
	New []feed.Entry

	// Startup is the most recent entry at the time the baseline was taken.
	// Set only on the poll that moves the tracker out of StatePriming.
	Startup *feed.Entry

	// NotModified is set when the source reported no change.
	NotModified bool
}

// Tracker follows one feed. It is not safe for concurrent use; one polling
// loop owns it.
type Tracker struct {
	name       string
	url        string
	source     feed.Source
	state      State
	seen       *SeenSet
	validators feed.Validators
}

// New creates a tracker for the feed at url, named for log and console output.
func New(name, url string, source feed.Source) *Tracker {
	return &Tracker{
		name:   name,
		url:    url,
		source: source,
		state:  StatePriming,
		seen:   NewSeenSet(),
	}
}

// Name returns the tracker name.
func (t *Tracker) Name() string { return t.name }

// URL returns the feed URL.
func (t *Tracker) URL() string { return t.url }

// State returns the current lifecycle state.
func (t *Tracker) State() State { return t.state }

// Seen reports whether id has been observed.
func (t *Tracker) Seen(id string) bool { return t.seen.Has(id) }

// SeenCount returns the number of identifiers observed.
func (t *Tracker) SeenCount() int { return t.seen.Len() }

// Validators returns the cache validators that the next fetch will send.
func (t *Tracker) Validators() feed.Validators { return t.validators }

// CheckForUpdates fetches the feed and reports entries not seen before.
// On error or a not-modified response the tracker state is unchanged.
func (t *Tracker) CheckForUpdates(ctx context.Context) (Update, error) {
	if t.source == nil {
		return Update{}, ErrNoSource
	}

	result, err := t.source.Fetch(ctx, t.url, t.validators)
	if err != nil {
		return Update{}, err
	}
	if result == nil || result.NotModified {
		return Update{NotModified: true}, nil
	}

	if result.Validators.ETag != "" {
		t.validators.ETag = result.Validators.ETag
	}
	if result.Validators.LastModified != "" {
		t.validators.LastModified = result.Validators.LastModified
	}

	return t.Observe(result.Entries), nil
}

// Observe applies one fetched feed, in feed order, to the tracker.
//
// While priming, every identifier is recorded and nothing is reported; if the
// feed had entries, its first one is returned as Startup and the tracker moves
// to StateSteady. A successful but empty feed leaves the tracker priming.
func (t *Tracker) Observe(entries []feed.Entry) Update {
	if t.state == StateSteady {
		return Update{New: Detect(entries, t.seen)}
	}

	record(entries, t.seen)
	if len(entries) == 0 {
		return Update{}
	}

	startup := entries[0]
	t.state = StateSteady
	return Update{Startup: &startup}
}
