// Package analytics computes per-provider incident counts and approximate
// uptime over trailing windows.
package analytics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/statuswatch/statuswatch/internal/incident"
)

// ErrInvalidWindow is returned for a window of zero or fewer days.
var ErrInvalidWindow = errors.New("window must be at least one day")

// DefaultPeriods are the windows published in batch snapshots, in days.
var DefaultPeriods = []int{7, 30, 90}

// Uptime is the approximate availability of one provider over a window.
type Uptime struct {
	UptimePercentage float64 `json:"uptime_percentage"`
	IncidentCount    int     `json:"incident_count"`
}

// Window holds the analytics for one trailing period.
type Window struct {
	PeriodDays     int                `json:"period_days"`
	IncidentCounts map[string]int     `json:"incident_counts"`
	Uptime         map[string]Uptime  `json:"uptime"`
	MTTR           map[string]float64 `json:"mttr"` // reserved; incidents carry no resolution time
}

// Key returns the period key used in published documents, e.g. "30d".
func Key(days int) string {
	return fmt.Sprintf("%dd", days)
}

// Aggregate computes the window of windowDays ending at now. Incidents with a
// timestamp in [now-windowDays, now] are counted.
//
// Every provider in providers appears in the result, with zero counts when it
// had no incidents. Providers outside the list are counted but get no uptime
// entry. Each incident is treated as one hour of downtime, capped at the
// length of the window.
func Aggregate(incidents []incident.Incident, windowDays int, providers []string, now time.Time) (Window, error) {
	if windowDays <= 0 {
		return Window{}, fmt.Errorf("%w: %d", ErrInvalidWindow, windowDays)
	}

	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	counts := make(map[string]int, len(providers))
	for _, p := range providers {
		counts[p] = 0
	}
	for i := range incidents {
		ts := incidents[i].Timestamp
		if ts.Before(cutoff) || ts.After(now) {
			continue
		}
		counts[incidents[i].Provider]++
	}

	totalHours := windowDays * 24
	uptime := make(map[string]Uptime, len(providers))
	for _, p := range providers {
		c := counts[p]
		uptime[p] = Uptime{
			UptimePercentage: UptimePercentage(c, totalHours),
			IncidentCount:    c,
		}
	}

	return Window{
		PeriodDays:     windowDays,
		IncidentCounts: counts,
		Uptime:         uptime,
		MTTR:           map[string]float64{},
	}, nil
}

// UptimePercentage returns ((hours - min(incidents, hours)) / hours) * 100,
// rounded to two decimals.
func UptimePercentage(incidents, hours int) float64 {
	if hours <= 0 {
		return 0
	}
	down := incidents
	if down > hours {
		down = hours
	}
	pct := float64(hours-down) / float64(hours) * 100
	return math.Round(pct*100) / 100
}

// Periods computes one independent window per entry of days, keyed by Key.
func Periods(incidents []incident.Incident, providers []string, now time.Time, days ...int) (map[string]Window, error) {
	if len(days) == 0 {
		days = DefaultPeriods
	}
	out := make(map[string]Window, len(days))
	for _, d := range days {
		w, err := Aggregate(incidents, d, providers, now)
		if err != nil {
			return nil, err
		}
		out[Key(d)] = w
	}
	return out, nil
}
