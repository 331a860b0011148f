package model

import "time"

// EventType tags which distribution components of an event are non-zero.
type EventType string

const (
	EventTypeCash  EventType = "cash"
	EventTypeStock EventType = "stock"
	EventTypeBoth  EventType = "both"
)

// DistributionEvent is one ex-dividend/ex-rights event applied to a Holding.
// The before/after snapshots make every event auditable on its own and let the
// chain of events be verified without replaying it.
type DistributionEvent struct {
	ID                   string     `json:"id"`                   // UUIDv5 of (holdingId, symbol, exRightDate)
	HoldingID            string     `json:"holdingId"`            // Owning holding
	Symbol               string     `json:"symbol"`               // Security identifier
	ExRightDate          time.Time  `json:"exRightDate"`          // Ex-date, UTC midnight
	CashDividendPerShare float64    `json:"cashDividendPerShare"` // Cash distributed per share held before the event
	TotalCashDividend    float64    `json:"totalCashDividend"`    // CashDividendPerShare × SharesBeforeRight
	StockDividendRatio   float64    `json:"stockDividendRatio"`   // Bonus shares per 1000 held (‰)
	StockDividendShares  int64      `json:"stockDividendShares"`  // floor(SharesBeforeRight × ratio / 1000)
	SharesBeforeRight    int64      `json:"sharesBeforeRight"`
	SharesAfterRight     int64      `json:"sharesAfterRight"`
	CostPriceBeforeRight float64    `json:"costPriceBeforeRight"`
	CostPriceAfterRight  float64    `json:"costPriceAfterRight"`
	RecordDate           *time.Time `json:"recordDate,omitempty"`
	PaymentDate          *time.Time `json:"paymentDate,omitempty"`
	Type                 EventType  `json:"type"`
}

// RawDistributionRecord is a distribution record as delivered by a provider.
// Records may arrive unordered, duplicated, and with the stock component either
// already expressed in ‰ (StockDividendRatio) or as a NT$ amount per share at
// par value 10 (StockDividendAmount).
type RawDistributionRecord struct {
	Symbol              string    `json:"symbol"`
	ExDividendDate      string    `json:"exDividendDate"`
	DividendPerShare    float64   `json:"dividendPerShare"`
	StockDividendRatio  *float64  `json:"stockDividendRatio,omitempty"`
	StockDividendAmount float64   `json:"stockDividendAmount,omitempty"`
	Year                int       `json:"year"`
	Type                EventType `json:"type,omitempty"`
	RecordDate          string    `json:"recordDate,omitempty"`
	PaymentDate         string    `json:"paymentDate,omitempty"`
}

// RightsSummary aggregates a holding's distribution history.
type RightsSummary struct {
	HoldingID          string     `json:"holdingId"`
	Symbol             string     `json:"symbol"`
	TotalCashDividend  float64    `json:"totalCashDividend"`
	TotalStockDividend int64      `json:"totalStockDividend"`
	EventsCount        int        `json:"eventsCount"`
	LastEventDate      *time.Time `json:"lastEventDate,omitempty"`
}
