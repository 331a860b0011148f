package model

import "time"

// Health is the result of a liveness probe.
type Health struct {
	Status    string    `json:"status"`   // "healthy" or "unhealthy"
	Database  string    `json:"database"` // "connected" or "disconnected"
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Healthy reports whether every dependency answered.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// VersionInfo describes the running build, its schema and the optional
// capabilities that are switched on.
type VersionInfo struct {
	AppVersion        string          `json:"appVersion"`
	SchemaVersion     int64           `json:"schemaVersion"`
	PendingMigrations bool            `json:"pendingMigrations"`
	Features          map[string]bool `json:"features"` // provider and scheduler switches
	StartedAt         time.Time       `json:"startedAt"`
}
