package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/statuswatch/statuswatch/internal/api/models"
	"github.com/statuswatch/statuswatch/internal/api/response"
	"github.com/statuswatch/statuswatch/internal/incident"
	"github.com/statuswatch/statuswatch/internal/snapshot"
	"github.com/statuswatch/statuswatch/internal/store"
)

// MaxIncidentLimit bounds the limit query parameter of ListIncidents.
const MaxIncidentLimit = snapshot.DefaultIncidentLimit

// IncidentArchive lists incidents kept across snapshot runs.
// store.Repository implements it.
type IncidentArchive interface {
	ListRecent(ctx context.Context, filter store.Filter) ([]incident.Incident, error)
}

// StatusHandler serves the snapshot documents.
type StatusHandler struct {
	snapshots SnapshotReader
	archive   IncidentArchive
}

// NewStatusHandler creates a new StatusHandler. archive may be nil, in which
// case ListIncidents rejects the since parameter.
func NewStatusHandler(snapshots SnapshotReader, archive IncidentArchive) *StatusHandler {
	return &StatusHandler{snapshots: snapshots, archive: archive}
}

// latest writes 503 and returns nil when no snapshot exists yet.
func (h *StatusHandler) latest(w http.ResponseWriter, r *http.Request) *snapshot.Snapshot {
	snap := h.snapshots.Latest()
	if snap == nil {
		response.ServiceUnavailable(w, r, "no snapshot has been built yet")
	}
	return snap
}

// ListProviders handles GET /v1/providers.
func (h *StatusHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	snap := h.latest(w, r)
	if snap == nil {
		return
	}
	response.Snapshot(w, r, snap.GeneratedAt, snap.Providers)
}

// GetStatus handles GET /v1/status.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.latest(w, r)
	if snap == nil {
		return
	}
	response.Snapshot(w, r, snap.GeneratedAt, snap.Status)
}

// GetProviderStatus handles GET /v1/status/{provider}.
func (h *StatusHandler) GetProviderStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.latest(w, r)
	if snap == nil {
		return
	}

	name := chi.URLParam(r, "provider")
	status, ok := snap.Status.Providers[name]
	if !ok {
		response.NotFound(w, r, "unknown provider: "+name)
		return
	}
	response.Snapshot(w, r, snap.GeneratedAt, status)
}

// ListIncidents handles GET /v1/incidents?provider=&limit=&since=.
// Incidents keep the snapshot's newest-first order. With since (RFC 3339)
// the incidents come from the archive instead and may predate the snapshot.
func (h *StatusHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	snap := h.latest(w, r)
	if snap == nil {
		return
	}

	query := r.URL.Query()
	limit := MaxIncidentLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxIncidentLimit {
			response.BadRequest(w, r, "invalid query parameter", []models.FieldError{{
				Field:   "limit",
				Message: "must be an integer between 1 and " + strconv.Itoa(MaxIncidentLimit),
				Code:    "OUT_OF_RANGE",
			}})
			return
		}
		limit = n
	}

	name := query.Get("provider")
	if name != "" {
		if _, ok := snap.Status.Providers[name]; !ok {
			response.BadRequest(w, r, "invalid query parameter", []models.FieldError{{
				Field:   "provider",
				Message: "unknown provider: " + name,
				Code:    "UNKNOWN_PROVIDER",
			}})
			return
		}
	}

	if raw := query.Get("since"); raw != "" {
		h.listArchived(w, r, raw, name, limit, snap.Incidents.LastUpdated)
		return
	}

	out := make([]incident.Incident, 0, limit)
	for _, inc := range snap.Incidents.Incidents {
		if len(out) == limit {
			break
		}
		if name != "" && inc.Provider != name {
			continue
		}
		out = append(out, inc)
	}

	response.Snapshot(w, r, snap.GeneratedAt, snapshot.IncidentsDocument{
		Incidents:   out,
		Count:       len(out),
		LastUpdated: snap.Incidents.LastUpdated,
	})
}

func (h *StatusHandler) listArchived(w http.ResponseWriter, r *http.Request, rawSince, provider string, limit int, updated snapshot.Timestamp) {
	if h.archive == nil {
		response.BadRequest(w, r, "invalid query parameter", []models.FieldError{{
			Field:   "since",
			Message: "the incident archive is not enabled",
			Code:    "UNSUPPORTED",
		}})
		return
	}
	since, err := time.Parse(time.RFC3339, rawSince)
	if err != nil {
		response.BadRequest(w, r, "invalid query parameter", []models.FieldError{{
			Field:   "since",
			Message: "must be an RFC 3339 timestamp",
			Code:    "INVALID_FORMAT",
		}})
		return
	}

	incidents, err := h.archive.ListRecent(r.Context(), store.Filter{
		Provider: provider,
		Since:    since,
		Limit:    limit,
	})
	if err != nil {
		response.InternalError(w, r, "failed to read the incident archive")
		return
	}
	if incidents == nil {
		incidents = []incident.Incident{}
	}

	response.JSON(w, r, http.StatusOK, snapshot.IncidentsDocument{
		Incidents:   incidents,
		Count:       len(incidents),
		LastUpdated: updated,
	})
}

// GetAnalytics handles GET /v1/analytics.
func (h *StatusHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	snap := h.latest(w, r)
	if snap == nil {
		return
	}
	response.Snapshot(w, r, snap.GeneratedAt, snap.Analytics)
}

// GetAnalyticsPeriod handles GET /v1/analytics/{period}, e.g. /v1/analytics/30d.
func (h *StatusHandler) GetAnalyticsPeriod(w http.ResponseWriter, r *http.Request) {
	snap := h.latest(w, r)
	if snap == nil {
		return
	}

	period := chi.URLParam(r, "period")
	window, ok := snap.Analytics.Periods[period]
	if !ok {
		response.NotFound(w, r, "unknown analytics period: "+period)
		return
	}
	response.Snapshot(w, r, snap.GeneratedAt, window)
}
