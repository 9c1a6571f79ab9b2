package tracker_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuswatch/statuswatch/internal/feed"
	"github.com/statuswatch/statuswatch/internal/incident"
	"github.com/statuswatch/statuswatch/internal/tracker"
)

type recordedPoll struct {
	provider string
	outcome  string
}

type fakeRecorder struct {
	mu    sync.Mutex
	polls []recordedPoll
	news  map[string]int
	seen  map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{news: map[string]int{}, seen: map[string]int{}}
}

func (r *fakeRecorder) RecordPoll(provider, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls = append(r.polls, recordedPoll{provider, outcome})
}

func (r *fakeRecorder) RecordNew(provider string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.news[provider] += count
}

func (r *fakeRecorder) RecordSeen(provider string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[provider] = count
}

func (r *fakeRecorder) outcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.polls))
	for i, p := range r.polls {
		out[i] = p.outcome
	}
	return out
}

var clock = func() time.Time { return time.Date(2025, 10, 15, 8, 0, 0, 0, time.UTC) }

func TestRunner_PollOnce(t *testing.T) {
	src := &fakeSource{}
	src.push(&feed.Result{Entries: []feed.Entry{
		{ID: "2", Title: "API errors", Description: "<b>Status: Investigating</b><p>Looking.</p>", Published: []int{2025, 10, 14, 10, 0, 0}},
		{ID: "1", Title: "Old"},
	}}, nil)
	src.push(nil, errors.New("dial tcp: i/o timeout"))
	src.push(&feed.Result{Entries: []feed.Entry{
		{ID: "4", Title: "Fourth", Published: []int{2025, 10, 15, 7, 0, 0}},
		{ID: "3", Title: "Third", Description: "<ul><li>API (Operational)</li><li>Sora</li></ul>", Published: []int{2025, 10, 15, 6, 0, 0}},
		{ID: "2", Title: "API errors"},
	}}, nil)
	src.push(&feed.Result{NotModified: true}, nil)

	var out bytes.Buffer
	rec := newFakeRecorder()
	runner := tracker.NewRunner(tracker.RunnerConfig{
		Feeds:      []tracker.Feed{{Provider: "openai", Tracker: tracker.New("OpenAI", testURL, src)}},
		Normalizer: &incident.Normalizer{Now: clock},
		Notifier:   tracker.NewConsoleNotifier(&out),
		Recorder:   rec,
		Logger:     zerolog.Nop(),
	})

	ctx := context.Background()
	assert.Equal(t, 0, runner.PollOnce(ctx))
	assert.Equal(t, 0, runner.PollOnce(ctx), "errors are absorbed")
	assert.Equal(t, 2, runner.PollOnce(ctx))
	assert.Equal(t, 0, runner.PollOnce(ctx))

	assert.Equal(t, []string{
		tracker.PollBaseline, tracker.PollError, tracker.PollNew, tracker.PollNotModified,
	}, rec.outcomes())
	assert.Equal(t, 2, rec.news["openai"])
	assert.Equal(t, 4, rec.seen["openai"])

	expected := "\n[OpenAI] Latest incident at startup:\n" +
		"\n[2025-10-14 10:00:00] Incident: API errors\n" +
		"Status: Investigating\n" +
		"Message: Looking.\n" +
		strings.Repeat("-", 60) + "\n" +
		"\n[2025-10-15 06:00:00] Incident: Third\n" +
		"Status: Unknown\n" +
		"Message: API (Operational) Sora\n" +
		"Affected Products: API, Sora\n" +
		strings.Repeat("-", 60) + "\n" +
		"\n[2025-10-15 07:00:00] Incident: Fourth\n" +
		"Status: Unknown\n" +
		strings.Repeat("-", 60) + "\n"
	assert.Equal(t, expected, out.String())
}

func TestConsoleNotifier_StripsUnknownStatusEcho(t *testing.T) {
	var out bytes.Buffer
	inc, _ := (&incident.Normalizer{Now: clock}).Normalize(feed.Entry{
		ID:          "9",
		Title:       "Batch jobs delayed",
		Description: "<p>Status: Unknown</p><p>Jobs are catching up.</p>",
		Published:   []int{2025, 10, 15, 7, 30, 0},
	}, "openai")

	require.NoError(t, tracker.NewConsoleNotifier(&out).Incident("OpenAI", inc))

	assert.Equal(t, "\n[2025-10-15 07:30:00] Incident: Batch jobs delayed\n"+
		"Status: Unknown\n"+
		"Message: Jobs are catching up.\n"+
		strings.Repeat("-", 60)+"\n", out.String())
}

func TestRunner_FeedsAreIsolated(t *testing.T) {
	a := &fakeSource{}
	a.push(&feed.Result{Entries: entries("shared")}, nil)
	a.push(&feed.Result{Entries: entries("a2", "shared")}, nil)
	b := &fakeSource{}
	b.push(nil, errors.New("boom"))
	b.push(&feed.Result{Entries: entries("shared")}, nil)

	trA := tracker.New("A", "https://a/rss", a)
	trB := tracker.New("B", "https://b/rss", b)
	runner := tracker.NewRunner(tracker.RunnerConfig{
		Feeds:      []tracker.Feed{{Provider: "a", Tracker: trA}, {Provider: "b", Tracker: trB}},
		Normalizer: &incident.Normalizer{Now: clock},
		Logger:     zerolog.Nop(),
	})

	ctx := context.Background()
	runner.PollOnce(ctx)
	assert.Equal(t, tracker.StateSteady, trA.State())
	assert.Equal(t, tracker.StatePriming, trB.State())

	assert.Equal(t, 1, runner.PollOnce(ctx))
	assert.Equal(t, tracker.StateSteady, trB.State())
	assert.True(t, trB.Seen("shared"))
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	src := &fakeSource{}
	src.push(&feed.Result{Entries: entries("a")}, nil)

	var out bytes.Buffer
	runner := tracker.NewRunner(tracker.RunnerConfig{
		Feeds:    []tracker.Feed{{Provider: "openai", Tracker: tracker.New("OpenAI", testURL, src)}},
		Interval: 10 * time.Millisecond,
		Notifier: tracker.NewConsoleNotifier(&out),
		Logger:   zerolog.Nop(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}

	src.mu.Lock()
	polls := len(src.received)
	src.mu.Unlock()
	assert.Greater(t, polls, 1, "loop keeps polling after the baseline")
}

func TestBanner(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, tracker.Banner(&out, "OpenAI Status Tracker", []string{testURL}, time.Minute))

	rule := strings.Repeat("=", 60)
	assert.Equal(t, rule+"\nOpenAI Status Tracker\nFeed: "+testURL+"\nInterval: 60s\n"+rule+"\n", out.String())
}
