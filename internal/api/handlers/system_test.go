package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

func TestSystemHandler(t *testing.T) {
	t.Run("health of a connected database", func(t *testing.T) {
		handler := NewSystemHandler(testutil.NewTestSystemService(t, testutil.SetupTestDB(t)))
		w := httptest.NewRecorder()

		handler.Health(w, httptest.NewRequest(http.MethodGet, "/api/system/health", nil))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got model.Health
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "healthy", got.Status)
		assert.Equal(t, "connected", got.Database)
	})

	t.Run("version", func(t *testing.T) {
		handler := NewSystemHandler(testutil.NewTestSystemService(t, testutil.SetupTestDB(t)))
		w := httptest.NewRecorder()

		handler.Version(w, httptest.NewRequest(http.MethodGet, "/api/system/version", nil))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, 2.0, got["schemaVersion"])
		assert.Equal(t, false, got["pendingMigrations"])
		assert.Equal(t, map[string]any{"finmind": true}, got["features"])
	})

	t.Run("closed database", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewSystemHandler(testutil.NewTestSystemService(t, db))
		require.NoError(t, db.Close())

		health := httptest.NewRecorder()
		handler.Health(health, httptest.NewRequest(http.MethodGet, "/api/system/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, health.Code)
		assert.Contains(t, health.Body.String(), `"database":"disconnected"`)

		version := httptest.NewRecorder()
		handler.Version(version, httptest.NewRequest(http.MethodGet, "/api/system/version", nil))
		assert.Equal(t, http.StatusInternalServerError, version.Code)
	})
}
