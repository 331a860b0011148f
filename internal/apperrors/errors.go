package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAccountNotFound indicates that an account with the given ID does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrHoldingNotFound indicates that a holding with the given ID does not exist.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrSettingNotFound indicates that a provider setting has not been stored yet.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrSymbolNotFound indicates that a symbol lookup returned no results
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrNegativeAmount indicates that an amount field has an invalid negative value.
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrInvalidMode indicates an unknown gain/loss accounting mode.
	ErrInvalidMode = errors.New("invalid gain/loss mode")

	// Validation errors for required fields
	ErrInvalidAccountID = errors.New("account ID is required")
	ErrInvalidSymbol    = errors.New("symbol is required")
	ErrInvalidDate      = errors.New("date parameter is required")
)

// Rights processing errors.
var (
	// ErrProviderUnavailable indicates that every configured provider failed or timed out.
	// The affected holding keeps its prior state.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidRecord indicates a raw distribution record without a parseable ex-dividend date.
	ErrInvalidRecord = errors.New("invalid distribution record")

	// ErrChainIntegrity indicates that an event's before-state does not match the
	// previous event's after-state.
	ErrChainIntegrity = errors.New("distribution chain integrity violation")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrieveAccounts = errors.New("failed to retrieve accounts")
	ErrFailedToRetrieveHoldings = errors.New("failed to retrieve holdings")
	ErrFailedToProcessRights    = errors.New("failed to process rights")
	ErrFailedToUpdatePrice      = errors.New("failed to update price")
	ErrFailedToGetVersionInfo   = errors.New("failed to get version information")
	ErrFailedToSaveSetting      = errors.New("failed to save setting")

	// ErrEncryptionKeyMissing indicates that secrets cannot be stored because
	// no encryption key is configured.
	ErrEncryptionKeyMissing = errors.New("encryption key not configured")
)
