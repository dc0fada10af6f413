// Package sweeper runs the periodic pass that force-expires overdue holds.
// Expiry is data driven: there is no live timer per reservation, so a crash
// simply resumes correctly on the next scheduled cycle.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/interfaces"
	"github.com/Fabio661717/loja-conect-sub001/internal/models"
	"github.com/Fabio661717/loja-conect-sub001/internal/notify"
)

// Expirer is the single state machine entry point the sweeper uses. Stock is
// never touched directly from here.
type Expirer interface {
	Expire(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
}

// Config holds sweeper timing settings
type Config struct {
	Interval         time.Duration
	BatchSize        int
	NearExpiryWindow time.Duration
	NotifyCooldown   time.Duration
}

// Sweeper periodically expires overdue holds and sends near-expiry warnings
type Sweeper struct {
	repo       interfaces.ReservationRepository
	engine     Expirer
	dispatcher interfaces.NotificationDispatcher
	config     Config
}

// NewSweeper creates a new expiration sweeper
func NewSweeper(repo interfaces.ReservationRepository, engine Expirer, dispatcher interfaces.NotificationDispatcher, config Config) *Sweeper {
	return &Sweeper{
		repo:       repo,
		engine:     engine,
		dispatcher: dispatcher,
		config:     config,
	}
}

// Run loops until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", s.config.Interval).
		Dur("near_expiry_window", s.config.NearExpiryWindow).
		Msg("Starting expiration sweeper")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping expiration sweeper")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one cycle: the advisory near-expiry pass first, then the expiry
// pass. The advisory pass never blocks expiry.
func (s *Sweeper) Sweep(ctx context.Context) {
	if err := s.notifyNearExpiry(ctx); err != nil {
		log.Error().Err(err).Msg("Near-expiry notification pass failed")
	}

	if err := s.expireOverdue(ctx); err != nil {
		log.Error().Err(err).Msg("Expiry pass failed")
	}
}

// expireOverdue force-expires holds whose expiry has passed. One record
// failing does not abort the batch; the next cycle retries it.
func (s *Sweeper) expireOverdue(ctx context.Context) error {
	overdue, err := s.repo.FindOverdue(ctx, time.Now(), s.config.BatchSize)
	if err != nil {
		return err
	}

	expired := 0
	for i := range overdue {
		reservation := &overdue[i]
		if _, err := s.engine.Expire(ctx, reservation.ReservationID); err != nil {
			if errors.Is(err, models.ErrAlreadyTerminal) {
				// Another path finished the hold first; nothing to do.
				continue
			}
			log.Error().Err(err).
				Str("reservation_id", reservation.ReservationID.String()).
				Msg("Failed to expire reservation")
			continue
		}
		expired++
	}

	if expired > 0 {
		log.Info().Int("count", expired).Msg("Expired overdue holds")
	}

	return nil
}

// notifyNearExpiry warns holders whose hold runs out within the warning
// window, respecting the per-hold cooldown.
func (s *Sweeper) notifyNearExpiry(ctx context.Context) error {
	nearExpiry, err := s.repo.FindNearExpiry(ctx, time.Now(), s.config.NearExpiryWindow, s.config.NotifyCooldown, s.config.BatchSize)
	if err != nil {
		return err
	}

	for i := range nearExpiry {
		reservation := &nearExpiry[i]

		name := ""
		if product, err := s.repo.GetProduct(ctx, reservation.ProductID); err == nil && product != nil {
			name = product.Name
		}

		intent := notify.IntentFor(reservation, models.NotificationKindNearExpiry, name)
		if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
			log.Error().Err(err).
				Str("reservation_id", reservation.ReservationID.String()).
				Msg("Failed to dispatch near-expiry notification")
			continue
		}

		if err := s.repo.MarkNotified(ctx, reservation.ReservationID, time.Now()); err != nil {
			log.Error().Err(err).
				Str("reservation_id", reservation.ReservationID.String()).
				Msg("Failed to stamp near-expiry notification")
		}
	}

	return nil
}
