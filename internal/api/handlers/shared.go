package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// parseJSON decodes the request body into T, rejecting unknown fields.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// parseForce reads the optional force query parameter.
func parseForce(r *http.Request) (bool, error) {
	value := r.URL.Query().Get("force")
	if value == "" {
		return false, nil
	}
	force, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid force parameter: %s", value)
	}
	return force, nil
}

// respondServiceError maps a service error to its HTTP status. Errors
// without a specific mapping are reported as 500 with the fallback message.
func respondServiceError(w http.ResponseWriter, err error, fallback error) {
	var validationErr *validation.Error
	switch {
	case errors.Is(err, apperrors.ErrHoldingNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrHoldingNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrAccountNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrAccountNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrSymbolNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrSymbolNotFound.Error(), err.Error())
	case errors.As(err, &validationErr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
	case errors.Is(err, apperrors.ErrInvalidMode),
		errors.Is(err, apperrors.ErrInvalidDate),
		errors.Is(err, validation.ErrInvalidUUID):
		response.RespondError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, apperrors.ErrEncryptionKeyMissing):
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrEncryptionKeyMissing.Error(), err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.RespondError(w, http.StatusGatewayTimeout, apperrors.ErrProviderUnavailable.Error(), err.Error())
	case errors.Is(err, apperrors.ErrProviderUnavailable):
		response.RespondError(w, http.StatusBadGateway, apperrors.ErrProviderUnavailable.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback.Error(), err.Error())
	}
}
