package handlers

import (
	"net/http"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// SettingsHandler handles provider credential endpoints.
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// FinMindTokenStatus reports whether a FinMind token is stored. The token
// itself is never returned.
//
// Endpoint: GET /api/settings/finmind-token
// Response: 200 OK with model.SettingStatus
func (h *SettingsHandler) FinMindTokenStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.settingsService.FinMindTokenStatus(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveSetting)
		return
	}

	response.RespondJSON(w, http.StatusOK, status)
}

// UpdateFinMindToken stores the FinMind API token encrypted. An empty token
// removes the stored one and the client falls back to the anonymous quota.
//
// Endpoint: PUT /api/settings/finmind-token
// Request Body: UpdateProviderTokenRequest (token)
// Response: 200 OK with model.SettingStatus
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 503 Service Unavailable if no encryption key is configured
func (h *SettingsHandler) UpdateFinMindToken(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateProviderTokenRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateProviderToken(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveSetting)
		return
	}

	status, err := h.settingsService.SetFinMindToken(r.Context(), req.Token)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveSetting)
		return
	}

	response.RespondJSON(w, http.StatusOK, status)
}
