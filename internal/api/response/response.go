// Package response writes the JSON bodies every endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the body of every non-2xx answer. Details carries a
// per-field map for validation failures and a plain string otherwise.
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON encodes data with the given status code. Encoding failures
// happen after the header is sent, so they are only logged.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		log.Error().Err(err).Int("status", status).Msg("Failed to encode JSON response")
	}
}

// NoContent answers 204 without a body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondError sends an ErrorResponse. message is shown to users, details may be nil.
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Status:  status,
		Details: details,
	})
}
