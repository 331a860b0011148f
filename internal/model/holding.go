package model

import "time"

// Holding represents one purchased lot of a security under one account.
//
// CostPrice is the "as paid" price and never changes after creation.
// Shares and AdjustedCostPrice are derived by folding the holding's
// DividendRecords over the original purchase state (OriginalShares, CostPrice).
type Holding struct {
	ID                 string              `json:"id"`
	AccountID          string              `json:"accountId"`
	Symbol             string              `json:"symbol"`
	Name               string              `json:"name"`
	Shares             int64               `json:"shares"`
	OriginalShares     int64               `json:"originalShares"`
	CostPrice          float64             `json:"costPrice"`
	AdjustedCostPrice  *float64            `json:"adjustedCostPrice,omitempty"`
	PurchaseDate       time.Time           `json:"purchaseDate"`
	CurrentPrice       float64             `json:"currentPrice"`
	PriceSource        string              `json:"priceSource,omitempty"`
	LastPriceUpdate    *time.Time          `json:"lastPriceUpdate,omitempty"`
	TransactionTaxRate *float64            `json:"transactionTaxRate,omitempty"`
	DividendRecords    []DistributionEvent `json:"dividendRecords"`
	LastDividendUpdate *time.Time          `json:"lastDividendUpdate,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
}

// EffectiveCostPrice returns the adjusted cost price when one has been computed,
// falling back to the original cost price.
func (h Holding) EffectiveCostPrice() float64 {
	if h.AdjustedCostPrice != nil {
		return *h.AdjustedCostPrice
	}
	return h.CostPrice
}

// PurchaseShares returns the share count at purchase time.
// Rows created before original_shares was tracked store 0; for those the
// purchase count is reconstructed by backing out every bonus issue.
func (h Holding) PurchaseShares() int64 {
	if h.OriginalShares > 0 {
		return h.OriginalShares
	}
	var bonus int64
	for _, e := range h.DividendRecords {
		bonus += e.StockDividendShares
	}
	return h.Shares - bonus
}

// Price is a quote returned by a price provider.
type Price struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
