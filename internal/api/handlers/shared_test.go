package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes known fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Main"}`))

		got, err := parseJSON[payload](req)

		require.NoError(t, err)
		assert.Equal(t, "Main", got.Name)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Main","extra":1}`))

		_, err := parseJSON[payload](req)

		assert.Error(t, err)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

		_, err := parseJSON[payload](req)

		assert.Error(t, err)
	})
}

func TestParseForce(t *testing.T) {
	for _, tc := range []struct {
		query   string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"?force=true", true, false},
		{"?force=1", true, false},
		{"?force=false", false, false},
		{"?force=maybe", false, true},
	} {
		t.Run(tc.query, func(t *testing.T) {
			got, err := parseForce(httptest.NewRequest(http.MethodPost, "/"+tc.query, nil))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// TestRespondServiceError tests error to status mapping.
//
// WHY: wrapped sentinels from every layer must still reach the client with
// the right status code.
func TestRespondServiceError(t *testing.T) {
	fallback := apperrors.ErrFailedToProcessRights

	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{"holding not found", fmt.Errorf("load: %w", apperrors.ErrHoldingNotFound), http.StatusNotFound},
		{"account not found", apperrors.ErrAccountNotFound, http.StatusNotFound},
		{"symbol not found", fmt.Errorf("%w: 9999", apperrors.ErrSymbolNotFound), http.StatusNotFound},
		{"validation", &validation.Error{Fields: map[string]string{"name": "required"}}, http.StatusBadRequest},
		{"invalid mode", apperrors.ErrInvalidMode, http.StatusBadRequest},
		{"missing key", apperrors.ErrEncryptionKeyMissing, http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("fetch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"providers down", apperrors.ErrProviderUnavailable, http.StatusBadGateway},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			respondServiceError(w, tc.err, fallback)

			assert.Equal(t, tc.want, w.Code)
		})
	}
}
