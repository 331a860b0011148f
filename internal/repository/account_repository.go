package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// AccountRepository provides data access methods for the account table.
type AccountRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAccountRepository creates a new AccountRepository with the provided database connection.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a new AccountRepository scoped to the provided transaction.
func (r *AccountRepository) WithTx(tx *sql.Tx) *AccountRepository {
	return &AccountRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *AccountRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const accountColumns = `
	a.id, a.name, a.brokerage_fee_rate, a.transaction_tax_rate, a.created_at,
	(SELECT COUNT(*) FROM holding h WHERE h.account_id = a.id)
`

// GetAccounts retrieves all accounts ordered by name, each with its holding count.
// Returns an empty slice if no accounts exist.
func (r *AccountRepository) GetAccounts(ctx context.Context) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account a ORDER BY a.name, a.id`

	rows, err := r.getQuerier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query account table: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account table: %w", err)
	}

	return accounts, nil
}

// GetAccount retrieves one account by ID.
// Returns apperrors.ErrAccountNotFound when no row matches.
func (r *AccountRepository) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account a WHERE a.id = ?`

	a, err := scanAccount(r.getQuerier().QueryRowContext(ctx, query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// InsertAccount stores a new account.
func (r *AccountRepository) InsertAccount(ctx context.Context, a model.Account) error {
	query := `
		INSERT INTO account (id, name, brokerage_fee_rate, transaction_tax_rate, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.getQuerier().ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.BrokerageFeeRate,
		a.TransactionTaxRate,
		formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// DeleteAccount removes an account together with its holdings and their events.
// Returns apperrors.ErrAccountNotFound when no row was deleted.
func (r *AccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM account WHERE id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var a model.Account
	var createdAt string

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.BrokerageFeeRate,
		&a.TransactionTaxRate,
		&createdAt,
		&a.HoldingCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, err
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to scan account table results: %w", err)
	}

	if a.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Account{}, fmt.Errorf("failed to parse account created_at: %w", err)
	}
	return a, nil
}
