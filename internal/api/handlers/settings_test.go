package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

func TestSettingsHandler_FinMindToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewSettingsHandler(testutil.NewTestSettingsService(t, db))

	t.Run("stores the token without echoing it", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.UpdateFinMindToken(w, testutil.NewRequest(http.MethodPut, "/api/settings/finmind-token", testutil.WithJSON(`{"token":"abc.def"}`)))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotContains(t, w.Body.String(), "abc.def")
		var status model.SettingStatus
		require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
		assert.True(t, status.Configured)
	})

	t.Run("reports status", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.FinMindTokenStatus(w, httptest.NewRequest(http.MethodGet, "/api/settings/finmind-token", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"configured":true`)
	})

	t.Run("returns 400 for token with whitespace", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.UpdateFinMindToken(w, testutil.NewRequest(http.MethodPut, "/api/settings/finmind-token", testutil.WithJSON(`{"token":"a b"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 503 without encryption key", func(t *testing.T) {
		svc, err := service.NewSettingsService(repository.NewSettingsRepository(db), "", testutil.Logger())
		require.NoError(t, err)
		w := httptest.NewRecorder()

		NewSettingsHandler(svc).UpdateFinMindToken(w, testutil.NewRequest(http.MethodPut, "/api/settings/finmind-token", testutil.WithJSON(`{"token":"abc"}`)))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
