package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// HoldingRepository provides data access methods for the holding table.
// Distribution events are loaded separately through DistributionEventRepository.
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx returns a new HoldingRepository scoped to the provided transaction.
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *HoldingRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const holdingColumns = `
	id, account_id, symbol, name, shares, original_shares,
	cost_price, adjusted_cost_price, purchase_date,
	current_price, price_source, last_price_update,
	transaction_tax_rate, last_dividend_update, created_at
`

// GetHoldings retrieves holdings ordered by symbol and purchase date.
// An empty accountID returns the holdings of every account.
// Returns an empty slice if no holdings match.
func (r *HoldingRepository) GetHoldings(ctx context.Context, accountID string) ([]model.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holding WHERE 1=1`
	var args []any

	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY symbol, purchase_date, id`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}

	return holdings, nil
}

// GetHolding retrieves one holding by ID.
// Returns apperrors.ErrHoldingNotFound when no row matches.
func (r *HoldingRepository) GetHolding(ctx context.Context, holdingID string) (model.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holding WHERE id = ?`

	h, err := scanHolding(r.getQuerier().QueryRowContext(ctx, query, holdingID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, apperrors.ErrHoldingNotFound
	}
	if err != nil {
		return model.Holding{}, err
	}
	return h, nil
}

// InsertHolding stores a new holding. Its events are not written.
func (r *HoldingRepository) InsertHolding(ctx context.Context, h model.Holding) error {
	query := `
		INSERT INTO holding (
			id, account_id, symbol, name, shares, original_shares,
			cost_price, adjusted_cost_price, purchase_date,
			current_price, price_source, last_price_update,
			transaction_tax_rate, last_dividend_update, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.getQuerier().ExecContext(ctx, query,
		h.ID,
		h.AccountID,
		h.Symbol,
		h.Name,
		h.Shares,
		h.OriginalShares,
		h.CostPrice,
		nullFloat(h.AdjustedCostPrice),
		formatDate(h.PurchaseDate),
		h.CurrentPrice,
		h.PriceSource,
		nullTime(h.LastPriceUpdate),
		nullFloat(h.TransactionTaxRate),
		nullTime(h.LastDividendUpdate),
		formatTime(h.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	return nil
}

// UpdateRights writes the fields derived by distribution event processing.
// Returns apperrors.ErrHoldingNotFound when the holding no longer exists.
func (r *HoldingRepository) UpdateRights(ctx context.Context, h model.Holding) error {
	query := `
		UPDATE holding
		SET shares = ?, original_shares = ?, adjusted_cost_price = ?, last_dividend_update = ?
		WHERE id = ?
	`
	result, err := r.getQuerier().ExecContext(ctx, query,
		h.Shares,
		h.OriginalShares,
		nullFloat(h.AdjustedCostPrice),
		nullTime(h.LastDividendUpdate),
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding rights: %w", err)
	}
	return requireAffected(result, apperrors.ErrHoldingNotFound)
}

// UpdatePrice stores the latest market price of a holding.
func (r *HoldingRepository) UpdatePrice(ctx context.Context, holdingID string, price model.Price) error {
	query := `
		UPDATE holding
		SET current_price = ?, price_source = ?, last_price_update = ?
		WHERE id = ?
	`
	result, err := r.getQuerier().ExecContext(ctx, query,
		price.Price,
		price.Source,
		formatTime(price.Timestamp),
		holdingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding price: %w", err)
	}
	return requireAffected(result, apperrors.ErrHoldingNotFound)
}

// DeleteHolding removes a holding and its events.
func (r *HoldingRepository) DeleteHolding(ctx context.Context, holdingID string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM holding WHERE id = ?`, holdingID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return requireAffected(result, apperrors.ErrHoldingNotFound)
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func scanHolding(row rowScanner) (model.Holding, error) {
	var h model.Holding
	var purchaseDate, createdAt string
	var adjusted, taxRate sql.NullFloat64
	var priceSource, lastPriceUpdate, lastDividendUpdate sql.NullString

	err := row.Scan(
		&h.ID,
		&h.AccountID,
		&h.Symbol,
		&h.Name,
		&h.Shares,
		&h.OriginalShares,
		&h.CostPrice,
		&adjusted,
		&purchaseDate,
		&h.CurrentPrice,
		&priceSource,
		&lastPriceUpdate,
		&taxRate,
		&lastDividendUpdate,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, err
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to scan holding table results: %w", err)
	}

	h.AdjustedCostPrice = floatPtr(adjusted)
	h.TransactionTaxRate = floatPtr(taxRate)
	h.PriceSource = priceSource.String

	if h.PurchaseDate, err = ParseTime(purchaseDate); err != nil {
		return model.Holding{}, fmt.Errorf("failed to parse purchase_date: %w", err)
	}
	if h.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Holding{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if h.LastPriceUpdate, err = parseNullTime(lastPriceUpdate); err != nil {
		return model.Holding{}, fmt.Errorf("failed to parse last_price_update: %w", err)
	}
	if h.LastDividendUpdate, err = parseNullTime(lastDividendUpdate); err != nil {
		return model.Holding{}, fmt.Errorf("failed to parse last_dividend_update: %w", err)
	}
	h.DividendRecords = []model.DistributionEvent{}

	return h, nil
}
