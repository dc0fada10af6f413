package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/interfaces"
	"github.com/Fabio661717/loja-conect-sub001/internal/models"
	"github.com/Fabio661717/loja-conect-sub001/internal/notify"
)

// ReservationService is the reservation state machine. It coordinates the
// ledger and the reservation store through the repository and emits
// notification intents after transitions commit.
type ReservationService struct {
	repo        interfaces.ReservationRepository
	storeConfig interfaces.StoreConfigReader
	cache       interfaces.CacheRepository
	dispatcher  interfaces.NotificationDispatcher
	config      ServiceConfig
}

// ServiceConfig holds the engine's behavioral settings. The hold duration
// and renewal cap are product decisions, so they arrive here as inputs
// rather than constants.
type ServiceConfig struct {
	DefaultHoldHours     int           // fallback when a store has no config row
	RenewalLimit         int           // max renewals per hold
	RenewalMaxExtraHours int           // upper bound for one renewal request
	RescheduleOffset     time.Duration // fixed deferral added by Reschedule
}

// Validate validates the service configuration
func (c ServiceConfig) Validate() error {
	if c.DefaultHoldHours < 1 {
		return fmt.Errorf("default hold hours must be positive, got %d", c.DefaultHoldHours)
	}
	if c.RenewalLimit < 0 {
		return fmt.Errorf("renewal limit must not be negative, got %d", c.RenewalLimit)
	}
	if c.RenewalMaxExtraHours < 1 {
		return fmt.Errorf("renewal max extra hours must be positive, got %d", c.RenewalMaxExtraHours)
	}
	if c.RescheduleOffset < time.Minute {
		return fmt.Errorf("reschedule offset must be at least 1 minute, got %v", c.RescheduleOffset)
	}
	return nil
}

// NewReservationService creates a new reservation service with dependency injection and validation
func NewReservationService(
	repo interfaces.ReservationRepository,
	storeConfig interfaces.StoreConfigReader,
	cache interfaces.CacheRepository,
	dispatcher interfaces.NotificationDispatcher,
	config ServiceConfig,
) (*ReservationService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	return &ReservationService{
		repo:        repo,
		storeConfig: storeConfig,
		cache:       cache,
		dispatcher:  dispatcher,
		config:      config,
	}, nil
}

// CreateHold places a time-boxed hold: stock decrement and reservation insert
// commit together, so a rejection or crash leaves stock untouched.
func (s *ReservationService) CreateHold(ctx context.Context, productID string, req *models.CreateHoldRequest) (*models.Reservation, error) {
	if err := validateCreateHold(productID, req); err != nil {
		return nil, err
	}

	// Replayed requests return the hold the first attempt created.
	existing, err := s.repo.GetReservationByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if existing != nil {
		log.Debug().
			Str("reservation_id", existing.ReservationID.String()).
			Str("idempotency_key", req.IdempotencyKey).
			Msg("Hold already exists for idempotency key")
		return existing, nil
	}

	holdHours, err := s.holdHoursForStore(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	reservation := &models.Reservation{
		ReservationID:  uuid.New(),
		ProductID:      productID,
		StoreID:        req.StoreID,
		CustomerID:     req.CustomerID,
		EmployeeID:     req.EmployeeID,
		Quantity:       req.Quantity,
		Variant:        req.Variant,
		Status:         models.ReservationStatusActive,
		HoldExpiresAt:  time.Now().Add(time.Duration(holdHours) * time.Hour),
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.repo.CreateHold(ctx, reservation); err != nil {
		if errors.Is(err, models.ErrDuplicateRequest) {
			// Lost a race against a retry carrying the same key; the
			// winner's hold is the answer for both callers.
			existing, readErr := s.repo.GetReservationByIdempotencyKey(ctx, req.IdempotencyKey)
			if readErr == nil && existing != nil {
				log.Debug().
					Str("reservation_id", existing.ReservationID.String()).
					Str("idempotency_key", req.IdempotencyKey).
					Msg("Replaying hold after idempotency key collision")
				return existing, nil
			}
		}
		return nil, err
	}

	log.Info().
		Str("reservation_id", reservation.ReservationID.String()).
		Str("product_id", productID).
		Int("quantity", req.Quantity).
		Time("hold_expires_at", reservation.HoldExpiresAt).
		Msg("Hold created")

	s.invalidateCacheByProduct(productID)

	return reservation, nil
}

// Confirm acknowledges that pickup is imminent. No stock effect.
func (s *ReservationService) Confirm(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	reservation, won, err := s.repo.TransitionHold(ctx, reservationID,
		[]models.ReservationStatus{models.ReservationStatusActive},
		models.ReservationStatusConfirmed, nil, false)
	if err != nil {
		return nil, err
	}
	if !won {
		return reservation, models.NewTransitionError("confirm", reservation.Status)
	}

	s.dispatchTransition(reservation, models.ReservationStatusActive)
	return reservation, nil
}

// Complete marks the item as collected. The held units are consumed, so no
// stock is restored, and the expiry is pinned to now so timers stop caring.
func (s *ReservationService) Complete(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	now := time.Now()
	reservation, won, err := s.repo.TransitionHold(ctx, reservationID, models.NonTerminalStatuses,
		models.ReservationStatusCompleted, &now, false)
	if err != nil {
		return nil, err
	}
	if !won {
		return reservation, models.NewTransitionError("complete", reservation.Status)
	}

	log.Info().
		Str("reservation_id", reservationID.String()).
		Str("product_id", reservation.ProductID).
		Msg("Hold completed")

	s.dispatchIntent(reservation, models.NotificationKindCompleted)
	return reservation, nil
}

// Cancel releases the hold and restores its units. Idempotent: a hold that
// already reached a terminal state reports ErrAlreadyTerminal and restores
// nothing, however many callers race.
func (s *ReservationService) Cancel(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	return s.finishHold(ctx, reservationID, models.ReservationStatusCancelled, "cancel")
}

// Expire force-releases an overdue hold. System-only: the sweeper is the one
// caller allowed here, the HTTP surface never routes to it.
func (s *ReservationService) Expire(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	return s.finishHold(ctx, reservationID, models.ReservationStatusExpired, "expire")
}

// finishHold performs a terminal transition with stock restoration. The
// repository's guard on the previous status makes the restoration happen
// exactly once even when Cancel and Expire race on the same record.
func (s *ReservationService) finishHold(ctx context.Context, reservationID uuid.UUID, to models.ReservationStatus, operation string) (*models.Reservation, error) {
	reservation, won, err := s.repo.TransitionHold(ctx, reservationID, models.NonTerminalStatuses, to, nil, true)
	if err != nil {
		return nil, err
	}
	if !won {
		// Guard lost against a non-terminal set means the record is
		// already terminal: a benign no-op, never a double restore.
		return reservation, fmt.Errorf("%s %s: %w", operation, reservationID, models.ErrAlreadyTerminal)
	}

	log.Info().
		Str("reservation_id", reservationID.String()).
		Str("product_id", reservation.ProductID).
		Str("status", string(to)).
		Int("restored_quantity", reservation.Quantity).
		Msg("Hold finished, stock restored")

	s.invalidateCacheByProduct(reservation.ProductID)
	s.dispatchTransition(reservation, models.ReservationStatusActive)
	return reservation, nil
}

// GetHold retrieves a reservation by ID
func (s *ReservationService) GetHold(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, models.ErrReservationNotFound)
	}
	return reservation, nil
}

// GetAvailability returns sellable stock for a product, checking cache first.
// The count already excludes held units.
func (s *ReservationService) GetAvailability(ctx context.Context, productID string) (*models.AvailabilityResponse, error) {
	product, err := s.cache.GetProduct(ctx, productID)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Cache error, falling back to database")
	}

	if product != nil {
		return availabilityResponse(product, true), nil
	}

	product, err = s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %s: %w", productID, models.ErrProductNotFound)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.cache.SetProduct(ctx, product); err != nil {
			log.Error().Err(err).Str("product_id", productID).Msg("Failed to update cache")
		}
	}()

	return availabilityResponse(product, false), nil
}

func availabilityResponse(product *models.Product, cacheHit bool) *models.AvailabilityResponse {
	return &models.AvailabilityResponse{
		ProductID:      product.ProductID,
		StoreID:        product.StoreID,
		Name:           product.Name,
		AvailableStock: product.AvailableStock,
		CacheHit:       cacheHit,
		LastUpdated:    product.UpdatedAt,
	}
}

func validateCreateHold(productID string, req *models.CreateHoldRequest) error {
	if productID == "" {
		return fmt.Errorf("product ID is required: %w", models.ErrValidation)
	}
	if req.Quantity < 1 {
		return fmt.Errorf("quantity must be positive, got %d: %w", req.Quantity, models.ErrValidation)
	}
	if req.StoreID == "" {
		return fmt.Errorf("store ID is required: %w", models.ErrValidation)
	}
	if req.CustomerID == "" {
		return fmt.Errorf("customer ID is required: %w", models.ErrValidation)
	}
	if req.IdempotencyKey == "" {
		return fmt.Errorf("idempotency key is required: %w", models.ErrValidation)
	}
	return nil
}

// holdHoursForStore resolves the hold duration from store configuration,
// falling back to the engine default when the store has no row.
func (s *ReservationService) holdHoursForStore(ctx context.Context, storeID string) (int, error) {
	hours, err := s.storeConfig.GetDefaultHoldHours(ctx, storeID)
	if err != nil {
		return 0, fmt.Errorf("failed to read store config: %w", err)
	}
	if hours <= 0 {
		hours = s.config.DefaultHoldHours
	}
	return hours, nil
}

// invalidateCacheByProduct drops the cached availability asynchronously
func (s *ReservationService) invalidateCacheByProduct(productID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.cache.DeleteProduct(ctx, productID); err != nil {
			log.Error().Err(err).Str("product_id", productID).Msg("Failed to invalidate cache")
		} else {
			log.Debug().Str("product_id", productID).Msg("Cache invalidated")
		}
	}()
}

// dispatchTransition emits the notification mapped to a status change
func (s *ReservationService) dispatchTransition(reservation *models.Reservation, oldStatus models.ReservationStatus) {
	kind := notify.KindForTransition(oldStatus, reservation.Status)
	if kind == "" {
		return
	}
	s.dispatchIntent(reservation, kind)
}

// dispatchIntent hands an intent to the dispatcher, fire-and-forget. The
// transition has already committed; dispatch failure is logged and swallowed.
func (s *ReservationService) dispatchIntent(reservation *models.Reservation, kind models.NotificationKind) {
	res := *reservation
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		name := s.productDisplayName(ctx, res.ProductID)
		if err := s.dispatcher.Dispatch(ctx, notify.IntentFor(&res, kind, name)); err != nil {
			log.Error().Err(err).
				Str("reservation_id", res.ReservationID.String()).
				Str("kind", string(kind)).
				Msg("Failed to dispatch notification intent")
		}
	}()
}

// productDisplayName is best effort; intents tolerate an empty name.
func (s *ReservationService) productDisplayName(ctx context.Context, productID string) string {
	product, err := s.cache.GetProduct(ctx, productID)
	if err != nil || product == nil {
		product, err = s.repo.GetProduct(ctx, productID)
		if err != nil || product == nil {
			return ""
		}
	}
	return product.Name
}
