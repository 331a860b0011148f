package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountService *service.AccountService
	batchService   *service.BatchService
}

// NewAccountHandler creates a new AccountHandler with the provided service dependencies.
func NewAccountHandler(accountService *service.AccountService, batchService *service.BatchService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		batchService:   batchService,
	}
}

// Accounts handles GET requests to list all accounts with their holding counts.
//
// Endpoint: GET /api/account
// Response: 200 OK with array of model.Account
// Error: 500 Internal Server Error if retrieval fails
func (h *AccountHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.GetAccounts(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveAccounts.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET requests to retrieve a single account.
//
// Endpoint: GET /api/account/{uuid}
// Response: 200 OK with model.Account
// Error: 400 Bad Request if account ID is invalid (validated by middleware)
// Error: 404 Not Found if account not found
// Error: 500 Internal Server Error if retrieval fails
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.GetAccount(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveAccounts)
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

// CreateAccount handles POST requests to create a new account.
// Omitted rates default to the configured brokerage fee and transaction tax.
//
// Endpoint: POST /api/account
// Request Body: CreateAccountRequest (name, brokerageFeeRate, transactionTaxRate)
// Response: 201 Created with model.Account
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateAccountRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateAccount(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveAccounts)
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create account", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, account)
}

// DeleteAccount handles DELETE requests to remove an account and all of its holdings.
//
// Endpoint: DELETE /api/account/{uuid}
// Response: 204 No Content
// Error: 400 Bad Request if account ID is invalid (validated by middleware)
// Error: 404 Not Found if account not found
// Error: 500 Internal Server Error if deletion fails
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accountService.DeleteAccount(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveAccounts)
		return
	}

	response.NoContent(w)
}

// ProcessRights handles POST requests to process the distribution events of
// every holding in an account. Holdings run in chunks; a failing holding is
// reported in the errors list and left unchanged.
//
// Endpoint: POST /api/account/{uuid}/rights?force=bool
// Response: 200 OK with model.BatchRightsResponse
// Error: 400 Bad Request if account ID or force parameter is invalid
// Error: 404 Not Found if account not found
// Error: 500 Internal Server Error if the holdings cannot be loaded
func (h *AccountHandler) ProcessRights(w http.ResponseWriter, r *http.Request) {
	force, err := parseForce(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	summary, err := h.batchService.ProcessAccount(r.Context(), chi.URLParam(r, "uuid"), force)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToProcessRights)
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
