package service

import (
	"context"
	"database/sql"
	"maps"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/database"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/version"
)

// SystemService reports liveness and build information.
type SystemService struct {
	db        *sql.DB
	features  map[string]bool
	startedAt time.Time
	now       func() time.Time
}

// NewSystemService creates a new SystemService. features lists optional
// capabilities reported by the version endpoint.
func NewSystemService(db *sql.DB, features map[string]bool) *SystemService {
	return &SystemService{
		db:        db,
		features:  maps.Clone(features),
		startedAt: time.Now().UTC(),
		now:       time.Now,
	}
}

// Health pings the database. The error, if any, is reported in the result.
func (s *SystemService) Health(ctx context.Context) model.Health {
	h := model.Health{
		Status:    "healthy",
		Database:  "connected",
		CheckedAt: s.now().UTC(),
	}
	if err := database.HealthCheck(ctx, s.db); err != nil {
		h.Status = "unhealthy"
		h.Database = "disconnected"
		h.Error = err.Error()
	}
	return h
}

// Version reports the application and schema versions.
func (s *SystemService) Version(ctx context.Context) (model.VersionInfo, error) {
	schema, pending, err := database.Version(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}

	info := model.VersionInfo{
		AppVersion:        version.Version,
		SchemaVersion:     schema,
		PendingMigrations: pending,
		Features:          maps.Clone(s.features),
		StartedAt:         s.startedAt,
	}
	if info.Features == nil {
		info.Features = map[string]bool{}
	}
	return info, nil
}
