package store

import (
	"context"
	"sort"
	"sync"

	"github.com/statuswatch/statuswatch/internal/incident"
)

// MemoryRepository is an in-memory implementation of Repository.
type MemoryRepository struct {
	mu        sync.RWMutex
	incidents map[key]incident.Incident
}

// NewMemoryRepository creates an empty in-memory archive.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		incidents: make(map[key]incident.Incident),
	}
}

// UpsertIncidents implements Repository.
func (r *MemoryRepository) UpsertIncidents(ctx context.Context, incidents []incident.Incident) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inc := range archivable(incidents) {
		inc.Seq = 0
		inc.AffectedProducts = append([]string(nil), inc.AffectedProducts...)
		r.incidents[key{inc.Provider, inc.Identifier}] = inc
	}
	return nil
}

// ListRecent implements Repository.
func (r *MemoryRepository) ListRecent(ctx context.Context, filter Filter) ([]incident.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]incident.Incident, 0, len(r.incidents))
	for _, inc := range r.incidents {
		if filter.Provider != "" && inc.Provider != filter.Provider {
			continue
		}
		if !filter.Since.IsZero() && inc.Timestamp.Before(filter.Since) {
			continue
		}
		result = append(result, inc)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.Identifier < b.Identifier
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Count implements Repository.
func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.incidents), nil
}
