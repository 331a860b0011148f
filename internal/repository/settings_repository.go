package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// SettingsRepository provides data access methods for the provider_setting table.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository with the provided database connection.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting by key.
// Returns apperrors.ErrSettingNotFound when the key has never been stored.
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) (model.ProviderSetting, error) {
	query := `SELECT key, value, encrypted, updated_at FROM provider_setting WHERE key = ?`

	var s model.ProviderSetting
	var updatedAt string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&s.Key, &s.Value, &s.Encrypted, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProviderSetting{}, apperrors.ErrSettingNotFound
	}
	if err != nil {
		return model.ProviderSetting{}, fmt.Errorf("failed to query provider_setting: %w", err)
	}
	if s.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return model.ProviderSetting{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return s, nil
}

// UpsertSetting inserts or replaces a setting.
func (r *SettingsRepository) UpsertSetting(ctx context.Context, s model.ProviderSetting) error {
	query := `
		INSERT INTO provider_setting (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			encrypted = excluded.encrypted,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.Encrypted, formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save provider_setting: %w", err)
	}
	return nil
}

// DeleteSetting removes a setting. Deleting a missing key is not an error.
func (r *SettingsRepository) DeleteSetting(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM provider_setting WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete provider_setting: %w", err)
	}
	return nil
}
