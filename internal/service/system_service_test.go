package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/version"
)

// TestSystemService tests health and version reporting.
func TestSystemService(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSystemService(t, db)

	t.Run("healthy database", func(t *testing.T) {
		h := svc.Health(ctx)

		assert.True(t, h.Healthy())
		assert.Equal(t, "connected", h.Database)
		assert.Empty(t, h.Error)
		assert.False(t, h.CheckedAt.IsZero())
	})

	t.Run("version of a migrated database", func(t *testing.T) {
		info, err := svc.Version(ctx)
		require.NoError(t, err)

		assert.Equal(t, version.Version, info.AppVersion)
		assert.Equal(t, int64(2), info.SchemaVersion)
		assert.False(t, info.PendingMigrations)
		assert.True(t, info.Features["finmind"])
		assert.False(t, info.StartedAt.IsZero())
	})

	t.Run("features are copied", func(t *testing.T) {
		features := map[string]bool{"yahoo": true}
		s := service.NewSystemService(db, features)
		features["yahoo"] = false

		info, err := s.Version(ctx)
		require.NoError(t, err)
		assert.True(t, info.Features["yahoo"])
	})

	t.Run("closed database is unhealthy", func(t *testing.T) {
		closed := testutil.SetupTestDB(t)
		require.NoError(t, closed.Close())

		h := testutil.NewTestSystemService(t, closed).Health(ctx)
		assert.False(t, h.Healthy())
		assert.Equal(t, "disconnected", h.Database)
		assert.NotEmpty(t, h.Error)
	})
}
