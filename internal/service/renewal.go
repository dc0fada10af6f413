package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// Renew extends an active hold by extraHours from now. Only valid from
// Active; the renewal cap rejects the request with the expiry untouched.
// No stock effect, the units were already held.
func (s *ReservationService) Renew(ctx context.Context, reservationID uuid.UUID, extraHours int) (*models.Reservation, error) {
	if extraHours < 1 {
		return nil, fmt.Errorf("extra hours must be positive, got %d: %w", extraHours, models.ErrValidation)
	}
	if extraHours > s.config.RenewalMaxExtraHours {
		return nil, fmt.Errorf("extra hours %d exceeds maximum allowed %d: %w", extraHours, s.config.RenewalMaxExtraHours, models.ErrValidation)
	}

	reservation, err := s.GetHold(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status != models.ReservationStatusActive {
		return reservation, models.NewTransitionError("renew", reservation.Status)
	}
	if reservation.RenewalCount >= s.config.RenewalLimit {
		return reservation, fmt.Errorf("renewal count %d reached cap %d: %w",
			reservation.RenewalCount, s.config.RenewalLimit, models.ErrRenewalLimitExceeded)
	}

	newExpiry := time.Now().Add(time.Duration(extraHours) * time.Hour)
	reservation, won, err := s.repo.ExtendHold(ctx, reservationID,
		[]models.ReservationStatus{models.ReservationStatusActive}, newExpiry, s.config.RenewalLimit, false)
	if err != nil {
		return nil, err
	}
	if !won {
		if reservation.Status == models.ReservationStatusActive {
			// Status guard held, so the cap clause is what rejected the
			// write: a concurrent renewal filled the last slot.
			return reservation, fmt.Errorf("renewal count %d reached cap %d: %w",
				reservation.RenewalCount, s.config.RenewalLimit, models.ErrRenewalLimitExceeded)
		}
		return reservation, models.NewTransitionError("renew", reservation.Status)
	}

	log.Info().
		Str("reservation_id", reservationID.String()).
		Int("renewal_count", reservation.RenewalCount).
		Time("hold_expires_at", reservation.HoldExpiresAt).
		Msg("Hold renewed")

	s.dispatchIntent(reservation, models.NotificationKindRenewed)
	return reservation, nil
}

// Reschedule defers a hold by the configured fixed offset and stamps the
// reschedule marker. The sweeper treats the result like any other hold.
func (s *ReservationService) Reschedule(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.GetHold(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status.IsTerminal() {
		return reservation, models.NewTransitionError("reschedule", reservation.Status)
	}

	base := reservation.HoldExpiresAt
	if now := time.Now(); base.Before(now) {
		base = now
	}
	newExpiry := base.Add(s.config.RescheduleOffset)

	reservation, won, err := s.repo.ExtendHold(ctx, reservationID, models.NonTerminalStatuses, newExpiry, 0, true)
	if err != nil {
		return nil, err
	}
	if !won {
		return reservation, models.NewTransitionError("reschedule", reservation.Status)
	}

	log.Info().
		Str("reservation_id", reservationID.String()).
		Time("hold_expires_at", reservation.HoldExpiresAt).
		Msg("Hold rescheduled")

	s.dispatchIntent(reservation, models.NotificationKindRescheduled)
	return reservation, nil
}
