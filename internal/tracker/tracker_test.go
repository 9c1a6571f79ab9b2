package tracker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuswatch/statuswatch/internal/feed"
	"github.com/statuswatch/statuswatch/internal/tracker"
)

const testURL = "https://status.openai.com/history.rss"

// fakeSource replays scripted fetch results and records the validators sent.
type fakeSource struct {
	mu       sync.Mutex
	results  []*feed.Result
	errs     []error
	received []feed.Validators
}

func (f *fakeSource) push(res *feed.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	f.errs = append(f.errs, err)
}

func (f *fakeSource) Fetch(_ context.Context, _ string, prev feed.Validators) (*feed.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, prev)
	if len(f.results) == 0 {
		return &feed.Result{NotModified: true, Validators: prev}, nil
	}
	res, err := f.results[0], f.errs[0]
	f.results, f.errs = f.results[1:], f.errs[1:]
	return res, err
}

// entries returns ids in feed order, newest first.
func entries(ids ...string) []feed.Entry {
	out := make([]feed.Entry, len(ids))
	for i, id := range ids {
		out[i] = feed.Entry{ID: id, Title: "Incident " + id}
	}
	return out
}

func ids(es []feed.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestTracker_FirstRunSuppression(t *testing.T) {
	src := &fakeSource{}
	src.push(&feed.Result{Entries: entries("c", "b", "a")}, nil)

	tr := tracker.New("OpenAI", testURL, src)
	assert.Equal(t, tracker.StatePriming, tr.State())

	update, err := tr.CheckForUpdates(context.Background())
	require.NoError(t, err)

	assert.Empty(t, update.New)
	require.NotNil(t, update.Startup)
	assert.Equal(t, "c", update.Startup.ID, "startup signal is the first entry in feed order")
	assert.Equal(t, tracker.StateSteady, tr.State())
	assert.Equal(t, 3, tr.SeenCount())
	for _, id := range []string{"a", "b", "c"} {
		assert.True(t, tr.Seen(id), id)
	}
}

func TestTracker_SteadyStateDedup(t *testing.T) {
	src := &fakeSource{}
	src.push(&feed.Result{Entries: entries("c", "b", "a")}, nil)
	src.push(&feed.Result{Entries: entries("d", "c", "b", "a")}, nil)
	src.push(&feed.Result{Entries: entries("f", "e", "d", "c", "b", "a")}, nil)
	src.push(&feed.Result{Entries: entries("f", "e", "d")}, nil)

	tr := tracker.New("OpenAI", testURL, src)
	ctx := context.Background()

	_, err := tr.CheckForUpdates(ctx)
	require.NoError(t, err)

	update, err := tr.CheckForUpdates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, ids(update.New))
	assert.Nil(t, update.Startup)

	update, err = tr.CheckForUpdates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "f"}, ids(update.New), "oldest new entry first")

	update, err = tr.CheckForUpdates(ctx)
	require.NoError(t, err)
	assert.Empty(t, update.New, "identifiers are reported at most once")
	assert.Equal(t, 6, tr.SeenCount())
}

func TestTracker_NotModifiedIsNoop(t *testing.T) {
	src := &fakeSource{}
	src.push(&feed.Result{NotModified: true}, nil)
	src.push(&feed.Result{Entries: entries("b", "a")}, nil)

	tr := tracker.New("OpenAI", testURL, src)

	update, err := tr.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.True(t, update.NotModified)
	assert.Empty(t, update.New)
	assert.Nil(t, update.Startup)
	assert.Equal(t, tracker.StatePriming, tr.State())

	update, err = tr.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, update.New, "baseline still suppressed after an unchanged fetch")
	require.NotNil(t, update.Startup)
}

func TestTracker_EmptyFeedStaysPriming(t *testing.T) {
	src := &fakeSource{}
	src.push(&feed.Result{}, nil)
	src.push(&feed.Result{Entries: entries("a")}, nil)

	tr := tracker.New("OpenAI", testURL, src)

	update, err := tr.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.Nil(t, update.Startup)
	assert.Equal(t, tracker.StatePriming, tr.State())

	update, err = tr.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, update.New)
	assert.NotNil(t, update.Startup)
	assert.Equal(t, tracker.StateSteady, tr.State())
}

func TestTracker_FetchErrorKeepsState(t *testing.T) {
	src := &fakeSource{}
	src.push(nil, &feed.FetchError{URL: testURL, Err: errors.New("connection reset")})
	src.push(&feed.Result{Entries: entries("a")}, nil)

	tr := tracker.New("OpenAI", testURL, src)

	_, err := tr.CheckForUpdates(context.Background())
	var fetchErr *feed.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, tracker.StatePriming, tr.State())
	assert.Zero(t, tr.SeenCount())

	update, err := tr.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, update.Startup)
}

func TestTracker_Validators(t *testing.T) {
	src := &fakeSource{}
	src.push(&feed.Result{Entries: entries("a"), Validators: feed.Validators{ETag: `"1"`, LastModified: "Mon"}}, nil)
	src.push(&feed.Result{Entries: entries("a"), Validators: feed.Validators{ETag: `"2"`}}, nil)
	src.push(&feed.Result{NotModified: true}, nil)

	tr := tracker.New("OpenAI", testURL, src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := tr.CheckForUpdates(ctx)
		require.NoError(t, err)
	}

	require.Len(t, src.received, 3)
	assert.True(t, src.received[0].IsZero())
	assert.Equal(t, feed.Validators{ETag: `"1"`, LastModified: "Mon"}, src.received[1])
	assert.Equal(t, feed.Validators{ETag: `"2"`, LastModified: "Mon"}, src.received[2], "missing validator keeps previous value")
	assert.Equal(t, feed.Validators{ETag: `"2"`, LastModified: "Mon"}, tr.Validators())
}

func TestTracker_NoSource(t *testing.T) {
	tr := tracker.New("x", testURL, nil)
	_, err := tr.CheckForUpdates(context.Background())
	assert.ErrorIs(t, err, tracker.ErrNoSource)
}

func TestDetect_IdentifierFallbacks(t *testing.T) {
	seen := tracker.NewSeenSet()
	feedEntries := []feed.Entry{
		{Link: "https://x/2"},
		{GUID: "guid-1"},
	}

	fresh := tracker.Detect(feedEntries, seen)
	require.Len(t, fresh, 2)
	assert.Equal(t, "guid-1", fresh[0].GUID)
	assert.True(t, seen.Has("https://x/2"))
	assert.True(t, seen.Has("guid-1"))

	assert.Empty(t, tracker.Detect(feedEntries, seen))
}

func TestDetect_AbsentIdentifierAlwaysNew(t *testing.T) {
	seen := tracker.NewSeenSet()
	anon := []feed.Entry{{Title: "no identifiers at all"}}

	for i := 0; i < 3; i++ {
		fresh := tracker.Detect(anon, seen)
		assert.Len(t, fresh, 1, fmt.Sprintf("poll %d", i))
	}
	assert.Zero(t, seen.Len())
}

func TestDetect_DuplicateWithinOneFetch(t *testing.T) {
	seen := tracker.NewSeenSet()
	fresh := tracker.Detect(entries("a", "a"), seen)
	assert.Len(t, fresh, 1)
}

func TestSeenSet(t *testing.T) {
	s := tracker.NewSeenSet()
	assert.True(t, s.Add("x"))
	assert.False(t, s.Add("x"))
	assert.True(t, s.Has("x"))
	assert.False(t, s.Has("y"))
	assert.Equal(t, 1, s.Len())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "priming", tracker.StatePriming.String())
	assert.Equal(t, "steady", tracker.StateSteady.String())
}
