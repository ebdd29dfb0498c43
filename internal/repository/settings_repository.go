package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
)

var ErrSettingsNotFound = errors.New("store settings not found")

// SettingsRepository manages the singleton store settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.StoreSettings, error)
	Update(ctx context.Context, settings *domain.StoreSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get fetches the single settings row. The row is seeded by migration,
// so a missing row indicates a broken installation.
func (r *settingsRepository) Get(ctx context.Context) (*domain.StoreSettings, error) {
	query := `
		SELECT id, is_open, closed_message, whatsapp_number, updated_at
		FROM store_settings
		LIMIT 1
	`

	settings := &domain.StoreSettings{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&settings.ID,
		&settings.IsOpen,
		&settings.ClosedMessage,
		&settings.WhatsAppNumber,
		&settings.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to fetch store settings: %w", err)
	}

	return settings, nil
}

// Update overwrites the singleton row in place.
func (r *settingsRepository) Update(ctx context.Context, settings *domain.StoreSettings) error {
	query := `
		UPDATE store_settings
		SET is_open = $2, closed_message = $3, whatsapp_number = $4, updated_at = $5
		WHERE id = $1
	`

	settings.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(
		ctx,
		query,
		settings.ID,
		settings.IsOpen,
		settings.ClosedMessage,
		settings.WhatsAppNumber,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update store settings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}
