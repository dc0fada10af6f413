package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

var terminalStatuses = []models.ReservationStatus{
	models.ReservationStatusCompleted,
	models.ReservationStatusCancelled,
	models.ReservationStatusExpired,
}

// PreviewPurge reports the per-status hold counts of a store so the operator
// sees what a purge would touch before confirming it.
func (s *ReservationService) PreviewPurge(ctx context.Context, storeID string) (*models.PurgePreview, error) {
	if storeID == "" {
		return nil, fmt.Errorf("store ID is required: %w", models.ErrValidation)
	}

	counts, err := s.repo.CountByStatus(ctx, storeID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	return &models.PurgePreview{StoreID: storeID, Counts: counts, Total: total}, nil
}

// PurgeByStatus removes a store's holds in one terminal status. Terminal
// records already had their stock restored (or consumed, for Completed), so
// deletion restores nothing.
func (s *ReservationService) PurgeByStatus(ctx context.Context, storeID string, status models.ReservationStatus) (*models.PurgeResult, error) {
	if storeID == "" {
		return nil, fmt.Errorf("store ID is required: %w", models.ErrValidation)
	}
	if !status.IsTerminal() {
		return nil, fmt.Errorf("purge by status accepts terminal statuses only, got %s: %w", status, models.ErrValidation)
	}

	removed, err := s.repo.DeleteByStatus(ctx, storeID, []models.ReservationStatus{status})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("store_id", storeID).
		Str("status", string(status)).
		Int64("removed", removed).
		Msg("Purged holds by status")

	return &models.PurgeResult{StoreID: storeID, RecordsRemoved: int(removed)}, nil
}

// PurgeAll removes every hold of a store. Non-terminal records are first
// cancelled through the guarded transition so their stock is restored
// exactly once; only then is anything deleted.
func (s *ReservationService) PurgeAll(ctx context.Context, storeID string) (*models.PurgeResult, error) {
	if storeID == "" {
		return nil, fmt.Errorf("store ID is required: %w", models.ErrValidation)
	}

	open, err := s.repo.FindByStoreAndStatus(ctx, storeID, models.NonTerminalStatuses)
	if err != nil {
		return nil, err
	}

	restored := 0
	for i := range open {
		reservation := &open[i]
		_, won, err := s.repo.TransitionHold(ctx, reservation.ReservationID, models.NonTerminalStatuses,
			models.ReservationStatusCancelled, nil, true)
		if err != nil {
			log.Error().Err(err).
				Str("reservation_id", reservation.ReservationID.String()).
				Msg("Failed to cancel hold during purge, leaving record in place")
			continue
		}
		if won {
			restored += reservation.Quantity
			s.invalidateCacheByProduct(reservation.ProductID)
		}
	}

	// Delete only terminal records: a hold whose cancellation failed above
	// keeps its stock out, so it must survive until the next purge attempt.
	removed, err := s.repo.DeleteByStatus(ctx, storeID, terminalStatuses)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("store_id", storeID).
		Int64("removed", removed).
		Int("units_restored", restored).
		Msg("Purged all holds for store")

	return &models.PurgeResult{StoreID: storeID, RecordsRemoved: int(removed), UnitsRestored: restored}, nil
}
