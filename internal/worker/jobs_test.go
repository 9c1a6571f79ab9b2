package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuswatch/statuswatch/internal/feed"
	"github.com/statuswatch/statuswatch/internal/provider"
	"github.com/statuswatch/statuswatch/internal/worker"
)

type stubSource struct {
	err  error
	urls []string
}

func (s *stubSource) Fetch(_ context.Context, url string, _ feed.Validators) (*feed.Result, error) {
	s.urls = append(s.urls, url)
	if s.err != nil {
		return nil, s.err
	}
	return &feed.Result{Entries: []feed.Entry{{ID: "1"}, {ID: "2"}}}, nil
}

func newDispatcher(t *testing.T, builder *fakeBuilder, src *stubSource) *worker.Dispatcher {
	t.Helper()
	registry, err := provider.NewRegistry([]provider.Provider{
		{Name: "alpha", DisplayName: "Alpha", RSSFeed: "https://alpha.test/rss"},
		{Name: "beta", DisplayName: "Beta", RSSFeed: "https://beta.test/rss"},
	})
	require.NoError(t, err)

	job, err := worker.NewSnapshotJob(worker.SnapshotJobConfig{Builder: builder, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return worker.NewDispatcher(job, registry, src, zerolog.Nop())
}

func TestDispatcher_InvalidMessages(t *testing.T) {
	d := newDispatcher(t, &fakeBuilder{}, &stubSource{})

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"unknown type", `{"job_type":"provider_refresh"}`},
		{"missing type", `{}`},
		{"unknown provider", `{"job_type":"health_check","provider":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Handle(context.Background(), []byte(tt.data))
			assert.ErrorIs(t, err, worker.ErrInvalidJob)
		})
	}
}

func TestDispatcher_SnapshotRefresh(t *testing.T) {
	builder := &fakeBuilder{snap: snapshotWith(map[string]string{"alpha": "", "beta": ""})}
	d := newDispatcher(t, builder, &stubSource{})

	require.NoError(t, d.Handle(context.Background(), []byte(`{"job_type":"snapshot_refresh"}`)))
	assert.Equal(t, 1, builder.calls)
}

func TestDispatcher_SnapshotRefreshTooManyFailures(t *testing.T) {
	builder := &fakeBuilder{snap: snapshotWith(map[string]string{"alpha": "down", "beta": "down", "gamma": ""})}
	d := newDispatcher(t, builder, &stubSource{})

	err := d.Handle(context.Background(), []byte(`{"job_type":"snapshot_refresh"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, worker.ErrInvalidJob)
	assert.Contains(t, err.Error(), "2/3")
}

func TestDispatcher_SnapshotRefreshBuildError(t *testing.T) {
	d := newDispatcher(t, &fakeBuilder{err: errors.New("boom")}, &stubSource{})

	err := d.Handle(context.Background(), []byte(`{"job_type":"snapshot_refresh"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, worker.ErrInvalidJob)
}

func TestDispatcher_HealthCheck(t *testing.T) {
	src := &stubSource{}
	d := newDispatcher(t, &fakeBuilder{}, src)

	require.NoError(t, d.Handle(context.Background(), []byte(`{"job_type":"health_check"}`)))
	require.NoError(t, d.Handle(context.Background(), []byte(`{"job_type":"health_check","provider":"beta"}`)))
	assert.Equal(t, []string{"https://alpha.test/rss", "https://beta.test/rss"}, src.urls)
}

func TestDispatcher_HealthCheckFailure(t *testing.T) {
	src := &stubSource{err: &feed.FetchError{URL: "https://alpha.test/rss", StatusCode: 503}}
	d := newDispatcher(t, &fakeBuilder{}, src)

	err := d.Handle(context.Background(), []byte(`{"job_type":"health_check"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, worker.ErrInvalidJob)

	var fetchErr *feed.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}
