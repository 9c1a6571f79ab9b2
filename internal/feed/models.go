// Package feed defines the boundary between incident processing and the
// status-page feeds it reads: raw entries, cache validators and the Source
// that produces them.
package feed

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoEntries is returned by Parse when a document contains neither RSS items
// nor Atom entries and does not look like a feed at all.
var ErrNoEntries = errors.New("document is not an rss or atom feed")

// Entry is one raw item from a feed, prior to normalization.
// Empty strings mean the field was absent.
type Entry struct {
	// ID is the feed-level identifier (RSS guid, Atom id).
	ID string

	// Link is the entry's permalink.
	Link string

	// GUID is the RSS guid, kept separately from ID.
	GUID string

	// Title is the entry headline.
	Title string

	// Description is the raw markup body.
	Description string

	// Published is the broken-down publish time in UTC:
	// year, month, day, hour, minute, second, weekday, yearday, dst.
	// Nil when the feed had no parseable publish time.
	Published []int
}

// Validators are the opaque cache-validator tokens remembered between fetches.
type Validators struct {
	ETag         string
	LastModified string
}

// IsZero reports whether no validator is set.
func (v Validators) IsZero() bool {
	return v.ETag == "" && v.LastModified == ""
}

// Result is the outcome of a single feed fetch.
type Result struct {
	// NotModified is set when the server reported the feed unchanged
	// since the validators sent with the request.
	NotModified bool

	// Entries in feed order (most recent first for status pages).
	Entries []Entry

	// Validators to send with the next fetch.
	Validators Validators
}

// Source fetches a feed, honoring cache validators from a previous fetch.
type Source interface {
	Fetch(ctx context.Context, url string, prev Validators) (*Result, error)
}

// FetchError describes a failed fetch of a specific feed.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
