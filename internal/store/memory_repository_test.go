package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuswatch/statuswatch/internal/incident"
	"github.com/statuswatch/statuswatch/internal/snapshot"
	"github.com/statuswatch/statuswatch/internal/store"
)

var base = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

func inc(provider, id string, age time.Duration) incident.Incident {
	return incident.Incident{
		Seq:              3,
		Identifier:       id,
		Provider:         provider,
		Title:            "Incident " + id,
		Status:           incident.StatusOperational,
		AffectedProducts: []string{"API"},
		Timestamp:        base.Add(-age),
	}
}

func TestMemoryRepository_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()

	require.NoError(t, repo.UpsertIncidents(ctx, []incident.Incident{
		inc("openai", "o1", 3*time.Hour),
		inc("openai", "o2", time.Hour),
		inc("anthropic", "a1", 2*time.Hour),
		inc("anthropic", "", time.Minute),
	}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "incidents without identifier are skipped")

	list, err := repo.ListRecent(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "o2", list[0].Identifier)
	assert.Equal(t, "a1", list[1].Identifier)
	assert.Equal(t, "o1", list[2].Identifier)
	assert.Zero(t, list[0].Seq)
}

func TestMemoryRepository_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()

	first := inc("openai", "o1", time.Hour)
	require.NoError(t, repo.UpsertIncidents(ctx, []incident.Incident{first}))

	updated := first
	updated.Status = "resolved"
	require.NoError(t, repo.UpsertIncidents(ctx, []incident.Incident{updated}))

	n, _ := repo.Count(ctx)
	assert.Equal(t, 1, n)

	list, err := repo.ListRecent(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "resolved", list[0].Status)

	// Same identifier under another provider is a distinct record.
	require.NoError(t, repo.UpsertIncidents(ctx, []incident.Incident{inc("anthropic", "o1", time.Hour)}))
	n, _ = repo.Count(ctx)
	assert.Equal(t, 2, n)
}

func TestMemoryRepository_Filter(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	require.NoError(t, repo.UpsertIncidents(ctx, []incident.Incident{
		inc("openai", "o1", 48*time.Hour),
		inc("openai", "o2", time.Hour),
		inc("openai", "o3", 2*time.Hour),
		inc("anthropic", "a1", time.Hour),
	}))

	list, err := repo.ListRecent(ctx, store.Filter{Provider: "openai"})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = repo.ListRecent(ctx, store.Filter{Provider: "openai", Since: base.Add(-24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.ListRecent(ctx, store.Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "anthropic", list[0].Provider, "ties ordered by provider")
}

func TestMemoryRepository_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := store.NewMemoryRepository()
	assert.ErrorIs(t, repo.UpsertIncidents(ctx, []incident.Incident{inc("openai", "o1", 0)}), context.Canceled)
	_, err := repo.ListRecent(ctx, store.Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingRepo struct {
	store.Repository
}

func (failingRepo) UpsertIncidents(context.Context, []incident.Incident) error {
	return errors.New("connection refused")
}

func TestSnapshotSink(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	sink := store.NewSnapshotSink(repo, zerolog.Nop())
	assert.Equal(t, "archive", sink.Name())

	snap := &snapshot.Snapshot{
		GeneratedAt: base,
		Incidents: snapshot.IncidentsDocument{
			Incidents: []incident.Incident{inc("openai", "o1", time.Hour), inc("openai", "o2", 2*time.Hour)},
			Count:     2,
		},
	}
	require.NoError(t, sink.Publish(ctx, snap))
	require.NoError(t, sink.Publish(ctx, snap))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	err = store.NewSnapshotSink(failingRepo{}, zerolog.Nop()).Publish(ctx, snap)
	assert.ErrorContains(t, err, "archiving incidents")
}
