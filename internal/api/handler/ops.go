// Package handler provides HTTP handlers for the statuswatch API.
package handler

import (
	"net/http"
	"time"

	"github.com/statuswatch/statuswatch/internal/api/models"
	"github.com/statuswatch/statuswatch/internal/api/response"
	"github.com/statuswatch/statuswatch/internal/provider/resilience"
	"github.com/statuswatch/statuswatch/internal/snapshot"
)

// SnapshotReader returns the latest published snapshot, or nil before the
// first build completes. *snapshot.Holder implements it.
type SnapshotReader interface {
	Latest() *snapshot.Snapshot
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	snapshots SnapshotReader
	feeds     *resilience.Registry
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. feeds may be nil.
func NewOpsHandler(version, buildTime string, snapshots SnapshotReader, feeds *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		snapshots: snapshots,
		feeds:     feeds,
		now:       time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// first snapshot has been built.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.snapshots.Latest() == nil {
		response.ServiceUnavailable(w, r, "no snapshot has been built yet")
		return
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	})
}

// SystemStatus handles GET /v1/ops/status - snapshot age and per-feed health.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(now),
		Feeds:  []models.FeedStatus{},
	}

	if snap := h.snapshots.Latest(); snap != nil {
		status.Snapshot = &models.SnapshotInfo{
			GeneratedAt: models.Timestamp(snap.GeneratedAt),
			AgeSeconds:  int64(now.Sub(snap.GeneratedAt) / time.Second),
			Providers:   snap.Providers.Count,
			Incidents:   snap.Incidents.Count,
		}
	} else {
		status.Status = models.HealthStatusFail
	}

	if h.feeds != nil {
		unhealthy := 0
		for _, fh := range h.feeds.GetAllHealth() {
			fs := feedStatus(fh)
			switch fs.Status {
			case models.HealthStatusFail:
				unhealthy++
				fallthrough
			case models.HealthStatusDegraded:
				if status.Status == models.HealthStatusOK {
					status.Status = models.HealthStatusDegraded
				}
			}
			status.Feeds = append(status.Feeds, fs)
		}
		if len(status.Feeds) > 0 && unhealthy == len(status.Feeds) {
			status.Status = models.HealthStatusFail
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func feedStatus(fh *resilience.FeedHealth) models.FeedStatus {
	fs := models.FeedStatus{
		Feed:                fh.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        fh.CircuitState.String(),
		ConsecutiveFailures: fh.ConsecutiveFailures,
		LastEntryCount:      fh.LastEntryCount,
	}
	switch {
	case fh.IsUnhealthy():
		fs.Status = models.HealthStatusFail
	case fh.IsDegraded():
		fs.Status = models.HealthStatusDegraded
	}
	if fh.LastSuccessAt != nil {
		fs.LastSuccessAt = models.NewTimestamp(*fh.LastSuccessAt)
	}
	if fh.LastFailureAt != nil {
		fs.LastFailureAt = models.NewTimestamp(*fh.LastFailureAt)
	}
	if fh.LastError != "" {
		msg := fh.LastError
		fs.Message = &msg
	}
	return fs
}
