package publish_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/incident"
	"github.com/statuswatch/statuswatch/internal/provider"
	"github.com/statuswatch/statuswatch/internal/publish"
	"github.com/statuswatch/statuswatch/internal/snapshot"
)

func sampleSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	now := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	providers := provider.Default().All()[:2]

	incidents := []incident.Incident{{
		Seq:              1,
		Identifier:       "https://status.openai.com/incidents/1",
		Provider:         "openai",
		Title:            "Elevated errors",
		Status:           "investigating",
		AffectedProducts: []string{"API"},
		Timestamp:        now.Add(-time.Hour),
	}}
	periods, err := analytics.Periods(incidents, []string{"openai", "anthropic"}, now)
	require.NoError(t, err)

	return &snapshot.Snapshot{
		GeneratedAt: now,
		Providers:   snapshot.ProvidersDocument{Providers: providers, Count: len(providers)},
		Status: snapshot.StatusDocument{
			Providers: map[string]snapshot.ProviderStatus{
				"openai":    {Provider: providers[0], CurrentStatus: "investigating", LastChecked: now, TotalIncidents: 1},
				"anthropic": {Provider: providers[1], CurrentStatus: "operational", LastChecked: now},
			},
			Count:       2,
			LastUpdated: snapshot.Timestamp(now),
		},
		Incidents: snapshot.IncidentsDocument{Incidents: incidents, Count: 1, LastUpdated: snapshot.Timestamp(now)},
		Analytics: snapshot.AnalyticsDocument{Periods: periods, LastUpdated: snapshot.Timestamp(now)},
	}
}

func TestFileSink_Publish(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public", "data")
	sink := publish.NewFileSink(dir, zerolog.Nop())

	require.NoError(t, sink.Publish(context.Background(), sampleSnapshot(t)))

	for _, name := range []string{publish.ProvidersFile, publish.StatusFile, publish.IncidentsFile, publish.AnalyticsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, publish.IncidentsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"incidents\": [", "indented with two spaces")

	var doc struct {
		Incidents   []incident.Incident `json:"incidents"`
		Count       int                 `json:"count"`
		LastUpdated string              `json:"last_updated"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, "2025-10-15T12:00:00", doc.LastUpdated)
	assert.Equal(t, "Elevated errors", doc.Incidents[0].Title)

	data, err = os.ReadFile(filepath.Join(dir, publish.ProvidersFile))
	require.NoError(t, err)
	var providers struct {
		Providers []provider.Provider `json:"providers"`
		Count     int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(data, &providers))
	assert.Equal(t, 2, providers.Count)
	assert.Equal(t, "openai", providers.Providers[0].Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no temp files left behind")
}

func TestFileSink_Overwrites(t *testing.T) {
	dir := t.TempDir()
	sink := publish.NewFileSink(dir, zerolog.Nop())
	snap := sampleSnapshot(t)

	require.NoError(t, sink.Publish(context.Background(), snap))
	snap.Incidents = snapshot.IncidentsDocument{Incidents: []incident.Incident{}, LastUpdated: snap.Incidents.LastUpdated}
	require.NoError(t, sink.Publish(context.Background(), snap))

	data, err := os.ReadFile(filepath.Join(dir, publish.IncidentsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count": 0`)
}

func TestFileSink_Defaults(t *testing.T) {
	sink := publish.NewFileSink("", zerolog.Nop())
	assert.Equal(t, publish.DefaultDir, sink.Dir())
	assert.Equal(t, "file", sink.Name())
}

func TestFileSink_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publish.NewFileSink(t.TempDir(), zerolog.Nop()).Publish(ctx, sampleSnapshot(t))
	assert.ErrorIs(t, err, context.Canceled)
}
