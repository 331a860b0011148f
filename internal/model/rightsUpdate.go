package model

// HoldingRightsResponse is returned after processing a single holding's
// distribution events.
type HoldingRightsResponse struct {
	Holding       Holding  `json:"holding"`
	EventsAdded   int      `json:"eventsAdded"`
	EventsSkipped int      `json:"eventsSkipped"`
	Rebuilt       bool     `json:"rebuilt"` // true when the chain was replayed from the purchase state
	Messages      []string `json:"messages,omitempty"`
}

// BatchRightsResponse represents the response for bulk rights processing.
// Success is false only when every holding failed.
type BatchRightsResponse struct {
	Success         bool                  `json:"success"`
	UpdatedHoldings []UpdatedHolding      `json:"updatedHoldings"`
	Errors          []UpdatedHoldingError `json:"errors"`
	TotalUpdated    int                   `json:"totalUpdated"`
	TotalErrors     int                   `json:"totalErrors"`
}

// UpdatedHolding describes a holding that was processed successfully.
type UpdatedHolding struct {
	HoldingID         string   `json:"holdingId"`
	Symbol            string   `json:"symbol"`
	Shares            int64    `json:"shares"`
	AdjustedCostPrice *float64 `json:"adjustedCostPrice,omitempty"`
	EventsCount       int      `json:"eventsCount"`
}

// UpdatedHoldingError describes a holding that failed and was left unchanged.
type UpdatedHoldingError struct {
	HoldingID string `json:"holdingId"`
	Symbol    string `json:"symbol"`
	Error     string `json:"error"`
}

// PriceUpdateResponse is returned after refreshing a holding's market price.
type PriceUpdateResponse struct {
	HoldingID string  `json:"holdingId"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Source    string  `json:"source"`
}
