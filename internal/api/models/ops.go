package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status   HealthStatus  `json:"status"`
	Time     Timestamp     `json:"time"`
	Snapshot *SnapshotInfo `json:"snapshot,omitempty"`
	Feeds    []FeedStatus  `json:"feeds"`
}

// SnapshotInfo describes the snapshot currently served.
type SnapshotInfo struct {
	GeneratedAt Timestamp `json:"generatedAt"`
	AgeSeconds  int64     `json:"ageSeconds"`
	Providers   int       `json:"providers"`
	Incidents   int       `json:"incidents"`
}

// FeedStatus represents the fetch health of one status feed.
type FeedStatus struct {
	Feed                string       `json:"feed"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	LastEntryCount      int          `json:"lastEntryCount"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	Message             *string      `json:"message,omitempty"`
}
