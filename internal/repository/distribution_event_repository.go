package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// DistributionEventRepository provides data access methods for the distribution_event table.
// Events are always written as a complete set per holding.
type DistributionEventRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewDistributionEventRepository creates a new DistributionEventRepository with the provided database connection.
func NewDistributionEventRepository(db *sql.DB) *DistributionEventRepository {
	return &DistributionEventRepository{db: db}
}

// WithTx returns a new DistributionEventRepository scoped to the provided transaction.
func (r *DistributionEventRepository) WithTx(tx *sql.Tx) *DistributionEventRepository {
	return &DistributionEventRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *DistributionEventRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetEventsByHoldingIDs retrieves the events of the given holdings, ascending by ex-right date.
//
// Returns:
//   - map[holdingID][]DistributionEvent; holdings without events are absent
//   - error: any error encountered during the query
//
// If holdingIDs is empty, returns an empty map.
func (r *DistributionEventRepository) GetEventsByHoldingIDs(ctx context.Context, holdingIDs []string) (map[string][]model.DistributionEvent, error) {
	eventsByHolding := make(map[string][]model.DistributionEvent)
	if len(holdingIDs) == 0 {
		return eventsByHolding, nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT id, holding_id, symbol, ex_right_date,
			cash_dividend_per_share, total_cash_dividend,
			stock_dividend_ratio, stock_dividend_shares,
			shares_before_right, shares_after_right,
			cost_price_before_right, cost_price_after_right,
			record_date, payment_date, type
		FROM distribution_event
		WHERE holding_id IN (` + placeholders(len(holdingIDs)) + `)
		ORDER BY holding_id, ex_right_date ASC
	`

	args := make([]any, len(holdingIDs))
	for i, id := range holdingIDs {
		args[i] = id
	}

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query distribution_event table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e model.DistributionEvent
		var exDate string
		var recordDate, paymentDate sql.NullString

		err := rows.Scan(
			&e.ID,
			&e.HoldingID,
			&e.Symbol,
			&exDate,
			&e.CashDividendPerShare,
			&e.TotalCashDividend,
			&e.StockDividendRatio,
			&e.StockDividendShares,
			&e.SharesBeforeRight,
			&e.SharesAfterRight,
			&e.CostPriceBeforeRight,
			&e.CostPriceAfterRight,
			&recordDate,
			&paymentDate,
			&e.Type,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan distribution_event table results: %w", err)
		}

		if e.ExRightDate, err = ParseTime(exDate); err != nil {
			return nil, fmt.Errorf("failed to parse ex_right_date: %w", err)
		}
		if e.RecordDate, err = parseNullTime(recordDate); err != nil {
			return nil, fmt.Errorf("failed to parse record_date: %w", err)
		}
		if e.PaymentDate, err = parseNullTime(paymentDate); err != nil {
			return nil, fmt.Errorf("failed to parse payment_date: %w", err)
		}

		eventsByHolding[e.HoldingID] = append(eventsByHolding[e.HoldingID], e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating distribution_event table: %w", err)
	}

	return eventsByHolding, nil
}

// ReplaceEvents deletes every stored event of the holding and inserts events.
// Callers run it inside the transaction that updates the holding row.
func (r *DistributionEventRepository) ReplaceEvents(ctx context.Context, holdingID string, events []model.DistributionEvent) error {
	q := r.getQuerier()

	if _, err := q.ExecContext(ctx, `DELETE FROM distribution_event WHERE holding_id = ?`, holdingID); err != nil {
		return fmt.Errorf("failed to delete distribution events: %w", err)
	}

	query := `
		INSERT INTO distribution_event (
			id, holding_id, symbol, ex_right_date,
			cash_dividend_per_share, total_cash_dividend,
			stock_dividend_ratio, stock_dividend_shares,
			shares_before_right, shares_after_right,
			cost_price_before_right, cost_price_after_right,
			record_date, payment_date, type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, e := range events {
		_, err := q.ExecContext(ctx, query,
			e.ID,
			holdingID,
			e.Symbol,
			formatDate(e.ExRightDate),
			e.CashDividendPerShare,
			e.TotalCashDividend,
			e.StockDividendRatio,
			e.StockDividendShares,
			e.SharesBeforeRight,
			e.SharesAfterRight,
			e.CostPriceBeforeRight,
			e.CostPriceAfterRight,
			nullDate(e.RecordDate),
			nullDate(e.PaymentDate),
			string(e.Type),
		)
		if err != nil {
			return fmt.Errorf("failed to insert distribution event %s: %w", e.ID, err)
		}
	}
	return nil
}
