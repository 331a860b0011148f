package request

// CreateAccountRequest represents the request body for creating an account.
// Omitted rates fall back to the configured defaults.
type CreateAccountRequest struct {
	Name               string   `json:"name"`
	BrokerageFeeRate   *float64 `json:"brokerageFeeRate,omitempty"`
	TransactionTaxRate *float64 `json:"transactionTaxRate,omitempty"`
}
