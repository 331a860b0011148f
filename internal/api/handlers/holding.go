package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// HoldingHandler handles HTTP requests for holding endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the holding, rights and gain/loss services.
type HoldingHandler struct {
	holdingService  *service.HoldingService
	rightsService   *service.RightsService
	gainLossService *service.GainLossService
}

// NewHoldingHandler creates a new HoldingHandler with the provided service dependencies.
func NewHoldingHandler(
	holdingService *service.HoldingService,
	rightsService *service.RightsService,
	gainLossService *service.GainLossService,
) *HoldingHandler {
	return &HoldingHandler{
		holdingService:  holdingService,
		rightsService:   rightsService,
		gainLossService: gainLossService,
	}
}

// Holdings handles GET requests to list holdings with their distribution events.
// The optional accountId query parameter restricts the list to one account.
//
// Endpoint: GET /api/holding?accountId=
// Response: 200 OK with array of model.Holding
// Error: 400 Bad Request if accountId is not a valid UUID
// Error: 404 Not Found if the account does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *HoldingHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID != "" {
		if err := validation.ValidateUUID(accountID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid UUID format", err.Error())
			return
		}
	}

	holdings, err := h.holdingService.GetHoldings(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHoldings)
		return
	}

	response.RespondJSON(w, http.StatusOK, holdings)
}

// GetHolding handles GET requests to retrieve a single holding with its events.
//
// Endpoint: GET /api/holding/{uuid}
// Response: 200 OK with model.Holding
// Error: 400 Bad Request if holding ID is invalid (validated by middleware)
// Error: 404 Not Found if holding not found
// Error: 500 Internal Server Error if retrieval fails
func (h *HoldingHandler) GetHolding(w http.ResponseWriter, r *http.Request) {
	holding, err := h.holdingService.GetHolding(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHoldings)
		return
	}

	response.RespondJSON(w, http.StatusOK, holding)
}

// CreateHolding handles POST requests to record a purchase lot.
//
// Endpoint: POST /api/holding
// Request Body: CreateHoldingRequest (accountId, symbol, name, shares, costPrice, purchaseDate, transactionTaxRate)
// Response: 201 Created with model.Holding
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if the account does not exist
// Error: 500 Internal Server Error if creation fails
func (h *HoldingHandler) CreateHolding(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateHoldingRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateHolding(req, time.Now()); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHoldings)
		return
	}

	holding, err := h.holdingService.CreateHolding(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHoldings)
		return
	}

	response.RespondJSON(w, http.StatusCreated, holding)
}

// DeleteHolding handles DELETE requests to remove a holding and its events.
//
// Endpoint: DELETE /api/holding/{uuid}
// Response: 204 No Content
// Error: 400 Bad Request if holding ID is invalid (validated by middleware)
// Error: 404 Not Found if holding not found
// Error: 500 Internal Server Error if deletion fails
func (h *HoldingHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	if err := h.holdingService.DeleteHolding(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHoldings)
		return
	}

	response.NoContent(w)
}

// ProcessRights handles POST requests to fetch and apply the distribution
// events of one holding. With force=true the chain is replayed from the
// purchase state.
//
// Endpoint: POST /api/holding/{uuid}/rights?force=bool
// Response: 200 OK with model.HoldingRightsResponse
// Error: 400 Bad Request if holding ID or force parameter is invalid
// Error: 404 Not Found if holding not found
// Error: 502 Bad Gateway if every provider failed
// Error: 504 Gateway Timeout if the provider call timed out
func (h *HoldingHandler) ProcessRights(w http.ResponseWriter, r *http.Request) {
	force, err := parseForce(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := h.rightsService.ProcessHolding(r.Context(), chi.URLParam(r, "uuid"), force)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToProcessRights)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// RefreshPrice handles POST requests to fetch and store a holding's market price.
//
// Endpoint: POST /api/holding/{uuid}/price
// Response: 200 OK with model.PriceUpdateResponse
// Error: 404 Not Found if holding not found or no provider knows the symbol
// Error: 502 Bad Gateway if every provider failed
func (h *HoldingHandler) RefreshPrice(w http.ResponseWriter, r *http.Request) {
	result, err := h.holdingService.RefreshPrice(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToUpdatePrice)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// GainLoss handles GET requests to evaluate a holding at its stored price.
// The mode query parameter defaults to including_rights.
//
// Endpoint: GET /api/holding/{uuid}/gain-loss?mode=
// Response: 200 OK with model.GainLoss
// Error: 400 Bad Request if mode is unknown
// Error: 404 Not Found if holding not found
func (h *HoldingHandler) GainLoss(w http.ResponseWriter, r *http.Request) {
	mode, err := service.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHoldings)
		return
	}

	result, err := h.gainLossService.Evaluate(r.Context(), chi.URLParam(r, "uuid"), mode)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHoldings)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// RightsSummary handles GET requests to aggregate a holding's distribution history.
//
// Endpoint: GET /api/holding/{uuid}/rights-summary
// Response: 200 OK with model.RightsSummary
// Error: 404 Not Found if holding not found
func (h *HoldingHandler) RightsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.rightsService.Summary(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHoldings)
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
