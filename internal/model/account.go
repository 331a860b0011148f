package model

import "time"

// Account groups holdings and carries the brokerage fee and transaction tax
// rates (both in percent) used when evaluating gain/loss.
type Account struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	BrokerageFeeRate   float64   `json:"brokerageFeeRate"`
	TransactionTaxRate float64   `json:"transactionTaxRate"`
	HoldingCount       int       `json:"holdingCount"`
	CreatedAt          time.Time `json:"createdAt"`
}
