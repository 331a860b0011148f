package request

// CreateHoldingRequest represents the request body for recording a purchase lot.
type CreateHoldingRequest struct {
	AccountID          string   `json:"accountId"`
	Symbol             string   `json:"symbol"`
	Name               string   `json:"name"`
	Shares             int64    `json:"shares"`
	CostPrice          float64  `json:"costPrice"`
	PurchaseDate       string   `json:"purchaseDate"`
	TransactionTaxRate *float64 `json:"transactionTaxRate,omitempty"`
}
