package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// StoreConfigRepository reads per-store reservation settings. The rows are
// written by the store configuration UI; the engine never mutates them.
type StoreConfigRepository struct {
	db *sqlx.DB
}

// NewStoreConfigRepository creates a new store config repository
func NewStoreConfigRepository(db *sqlx.DB) *StoreConfigRepository {
	return &StoreConfigRepository{db: db}
}

// GetDefaultHoldHours returns the configured hold duration for a store, or 0
// when the store has no config row so the caller can apply its fallback.
func (r *StoreConfigRepository) GetDefaultHoldHours(ctx context.Context, storeID string) (int, error) {
	var hours int
	query := `SELECT default_hold_hours FROM store_config WHERE store_id = $1`

	err := r.db.GetContext(ctx, &hours, query, storeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		log.Error().Err(err).Str("store_id", storeID).Msg("Failed to get store config")
		return 0, fmt.Errorf("failed to get store config: %w", err)
	}

	return hours, nil
}
