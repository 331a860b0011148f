package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate tests that the embedded migrations apply to a fresh database.
//
// WHY: the server and the test database both rely on the embedded
// migrations. A broken migration must fail here rather than at startup.
func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.New(nil).Level(zerolog.Disabled)

	version, err := Migrate(ctx, db, log)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	t.Run("second run is a no-op", func(t *testing.T) {
		again, err := Migrate(ctx, db, log)
		require.NoError(t, err)
		assert.Equal(t, version, again)
	})

	t.Run("version reports no pending migrations", func(t *testing.T) {
		v, pending, err := Version(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)
		assert.False(t, pending)
	})

	t.Run("tables exist", func(t *testing.T) {
		for _, table := range []string{"account", "holding", "distribution_event", "provider_setting"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
			require.NoError(t, err, table)
		}
	})

	t.Run("foreign keys are enforced", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO holding (id, account_id, symbol, shares, cost_price, purchase_date, created_at)
			VALUES ('h', 'missing', '2330', 1000, 500, '2024-01-01', '2024-01-01T00:00:00Z')`)
		assert.Error(t, err)
	})

	t.Run("health check", func(t *testing.T) {
		assert.NoError(t, HealthCheck(ctx, db))
	})
}

// TestDSN tests connection string construction.
func TestDSN(t *testing.T) {
	assert.Equal(t, ":memory:", DSN(":memory:"))
	dsn := DSN("/tmp/x.db")
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "_pragma=foreign_keys%281%29")
}
