package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rights"
)

// AccountBuilder provides a fluent interface for creating test accounts.
//
// Example usage:
//
//	// Simple creation with defaults
//	account := testutil.NewAccount().Build(t, db)
//
//	// Customized account
//	account := testutil.NewAccount().
//	    WithName("Broker A").
//	    WithRates(0.1425, 0.3).
//	    Build(t, db)
type AccountBuilder struct {
	ID                 string
	Name               string
	BrokerageFeeRate   float64
	TransactionTaxRate float64
	CreatedAt          time.Time
}

// NewAccount creates an AccountBuilder with sensible defaults.
func NewAccount() *AccountBuilder {
	return &AccountBuilder{
		ID:                 MakeID(),
		Name:               MakeAccountName("Test Account"),
		BrokerageFeeRate:   rights.DefaultBrokerageFeeRate,
		TransactionTaxRate: rights.DefaultTransactionTaxRate,
		CreatedAt:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// WithID sets a custom ID.
func (b *AccountBuilder) WithID(id string) *AccountBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *AccountBuilder) WithName(name string) *AccountBuilder {
	b.Name = name
	return b
}

// WithRates sets the brokerage fee and transaction tax rates (percent).
func (b *AccountBuilder) WithRates(fee, tax float64) *AccountBuilder {
	b.BrokerageFeeRate = fee
	b.TransactionTaxRate = tax
	return b
}

// Build creates the account in the database and returns it.
func (b *AccountBuilder) Build(t *testing.T, db *sql.DB) model.Account {
	t.Helper()

	query := `
		INSERT INTO account (id, name, brokerage_fee_rate, transaction_tax_rate, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.BrokerageFeeRate, b.TransactionTaxRate, b.CreatedAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}

	return model.Account{
		ID:                 b.ID,
		Name:               b.Name,
		BrokerageFeeRate:   b.BrokerageFeeRate,
		TransactionTaxRate: b.TransactionTaxRate,
		CreatedAt:          b.CreatedAt,
	}
}

// CreateAccount creates an account with the given name and default rates.
//
// Example usage:
//
//	account := testutil.CreateAccount(t, db, "Broker A")
func CreateAccount(t *testing.T, db *sql.DB, name string) model.Account {
	t.Helper()
	return NewAccount().WithName(name).Build(t, db)
}

// HoldingBuilder provides a fluent interface for creating test holdings.
//
// Example usage:
//
//	holding := testutil.NewHolding(account.ID).
//	    WithSymbol("2330").
//	    WithShares(1000).
//	    WithCostPrice(30).
//	    WithPurchaseDate(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)).
//	    Build(t, db)
type HoldingBuilder struct {
	holding model.Holding
}

// NewHolding creates a HoldingBuilder for the account with sensible defaults:
// 1000 shares of 2330 bought at 30 on 2023-01-01.
func NewHolding(accountID string) *HoldingBuilder {
	return &HoldingBuilder{holding: model.Holding{
		ID:              MakeID(),
		AccountID:       accountID,
		Symbol:          "2330",
		Name:            "TSMC",
		Shares:          1000,
		OriginalShares:  1000,
		CostPrice:       30,
		PurchaseDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		DividendRecords: []model.DistributionEvent{},
		CreatedAt:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
}

// WithID sets a custom ID.
func (b *HoldingBuilder) WithID(id string) *HoldingBuilder {
	b.holding.ID = id
	return b
}

// WithSymbol sets the symbol.
func (b *HoldingBuilder) WithSymbol(symbol string) *HoldingBuilder {
	b.holding.Symbol = symbol
	return b
}

// WithName sets the security name.
func (b *HoldingBuilder) WithName(name string) *HoldingBuilder {
	b.holding.Name = name
	return b
}

// WithShares sets both the current and the purchased share count.
func (b *HoldingBuilder) WithShares(shares int64) *HoldingBuilder {
	b.holding.Shares = shares
	b.holding.OriginalShares = shares
	return b
}

// WithOriginalShares sets the purchased share count only. Zero simulates a
// row created before original shares were tracked.
func (b *HoldingBuilder) WithOriginalShares(shares int64) *HoldingBuilder {
	b.holding.OriginalShares = shares
	return b
}

// WithCostPrice sets the purchase cost per share.
func (b *HoldingBuilder) WithCostPrice(cost float64) *HoldingBuilder {
	b.holding.CostPrice = cost
	return b
}

// WithAdjustedCostPrice sets a previously computed adjusted cost.
func (b *HoldingBuilder) WithAdjustedCostPrice(cost float64) *HoldingBuilder {
	b.holding.AdjustedCostPrice = &cost
	return b
}

// WithCurrentPrice sets the stored market price.
func (b *HoldingBuilder) WithCurrentPrice(price float64) *HoldingBuilder {
	b.holding.CurrentPrice = price
	return b
}

// WithPurchaseDate sets the purchase date.
func (b *HoldingBuilder) WithPurchaseDate(date time.Time) *HoldingBuilder {
	b.holding.PurchaseDate = date
	return b
}

// WithTaxRate sets a per-holding transaction tax override.
func (b *HoldingBuilder) WithTaxRate(rate float64) *HoldingBuilder {
	b.holding.TransactionTaxRate = &rate
	return b
}

// WithLastDividendUpdate marks the holding as processed at the given time.
func (b *HoldingBuilder) WithLastDividendUpdate(at time.Time) *HoldingBuilder {
	b.holding.LastDividendUpdate = &at
	return b
}

// WithEvents attaches stored distribution events. Their HoldingID is set on Build.
func (b *HoldingBuilder) WithEvents(events ...model.DistributionEvent) *HoldingBuilder {
	b.holding.DividendRecords = append(b.holding.DividendRecords, events...)
	return b
}

// Build creates the holding and its events in the database and returns it.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Holding {
	t.Helper()

	h := b.holding
	query := `
		INSERT INTO holding (
			id, account_id, symbol, name, shares, original_shares,
			cost_price, adjusted_cost_price, purchase_date,
			current_price, transaction_tax_rate, last_dividend_update, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		h.ID,
		h.AccountID,
		h.Symbol,
		h.Name,
		h.Shares,
		h.OriginalShares,
		h.CostPrice,
		optionalFloat(h.AdjustedCostPrice),
		h.PurchaseDate.Format("2006-01-02"),
		h.CurrentPrice,
		optionalFloat(h.TransactionTaxRate),
		optionalTime(h.LastDividendUpdate),
		h.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}

	for i := range h.DividendRecords {
		h.DividendRecords[i].HoldingID = h.ID
		insertEvent(t, db, h.DividendRecords[i])
	}

	return h
}

// NewEvent returns a stored distribution event with consistent snapshots,
// computed the same way the processor does.
//
// Example usage:
//
//	e := testutil.NewEvent("2330", date, 1000, 30, 1.5, 0)
func NewEvent(symbol string, exDate time.Time, sharesBefore int64, costBefore, cash, ratio float64) model.DistributionEvent {
	adj := rights.ApplyEvent(costBefore, sharesBefore, cash, ratio)

	eventType := model.EventTypeCash
	switch {
	case cash > 0 && ratio > 0:
		eventType = model.EventTypeBoth
	case ratio > 0:
		eventType = model.EventTypeStock
	}

	return model.DistributionEvent{
		ID:                   MakeID(),
		Symbol:               symbol,
		ExRightDate:          exDate,
		CashDividendPerShare: cash,
		TotalCashDividend:    cash * float64(sharesBefore),
		StockDividendRatio:   ratio,
		StockDividendShares:  adj.StockDividendShares,
		SharesBeforeRight:    sharesBefore,
		SharesAfterRight:     adj.SharesAfter,
		CostPriceBeforeRight: costBefore,
		CostPriceAfterRight:  adj.AdjustedCostPrice,
		Type:                 eventType,
	}
}

func insertEvent(t *testing.T, db *sql.DB, e model.DistributionEvent) {
	t.Helper()

	query := `
		INSERT INTO distribution_event (
			id, holding_id, symbol, ex_right_date,
			cash_dividend_per_share, total_cash_dividend,
			stock_dividend_ratio, stock_dividend_shares,
			shares_before_right, shares_after_right,
			cost_price_before_right, cost_price_after_right, type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		e.ID,
		e.HoldingID,
		e.Symbol,
		e.ExRightDate.Format("2006-01-02"),
		e.CashDividendPerShare,
		e.TotalCashDividend,
		e.StockDividendRatio,
		e.StockDividendShares,
		e.SharesBeforeRight,
		e.SharesAfterRight,
		e.CostPriceBeforeRight,
		e.CostPriceAfterRight,
		string(e.Type),
	)
	if err != nil {
		t.Fatalf("Failed to create test distribution event: %v", err)
	}
}

func optionalFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func optionalTime(ts *time.Time) any {
	if ts == nil {
		return nil
	}
	return ts.UTC().Format(time.RFC3339)
}
