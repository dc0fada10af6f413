package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// ReservationRepository defines the contract for the reservation store and
// the inventory ledger. Composite operations run their own transaction so
// stock and status always commit together.
type ReservationRepository interface {
	// Product / ledger operations
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	// IncrementStock restores units to the sellable count. Atomic per
	// product via a single conditional write.
	IncrementStock(ctx context.Context, productID string, qty int) error

	// CreateHold decrements available stock and inserts the reservation in
	// one transaction. Returns models.ErrInsufficientStock or
	// models.ErrProductNotFound without having changed anything.
	CreateHold(ctx context.Context, reservation *models.Reservation) error

	// TransitionHold performs a status-guarded update: the write succeeds
	// only while the stored status is one of `from`. When restock is set
	// and the guard wins, the hold's quantity is returned to available
	// stock in the same transaction. The returned flag reports whether
	// this caller won; the reservation reflects the row after the attempt.
	TransitionHold(ctx context.Context, reservationID uuid.UUID, from []models.ReservationStatus, to models.ReservationStatus, expiresAt *time.Time, restock bool) (*models.Reservation, bool, error)

	// ExtendHold pushes hold_expires_at forward, guarded on `from`. A
	// renewalCap > 0 makes the write a renewal: renewal_count is bumped
	// and the guard additionally requires renewal_count < renewalCap, so
	// concurrent renewals can never push the count past the cap.
	ExtendHold(ctx context.Context, reservationID uuid.UUID, from []models.ReservationStatus, newExpiry time.Time, renewalCap int, markReschedule bool) (*models.Reservation, bool, error)

	// Reservation reads
	GetReservation(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	GetReservationByIdempotencyKey(ctx context.Context, idempotencyKey string) (*models.Reservation, error)

	// Sweeper queries
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error)
	FindNearExpiry(ctx context.Context, now time.Time, window, cooldown time.Duration, limit int) ([]models.Reservation, error)
	MarkNotified(ctx context.Context, reservationID uuid.UUID, at time.Time) error

	// Bulk cleanup
	CountByStatus(ctx context.Context, storeID string) (map[models.ReservationStatus]int, error)
	FindByStoreAndStatus(ctx context.Context, storeID string, statuses []models.ReservationStatus) ([]models.Reservation, error)
	DeleteByStatus(ctx context.Context, storeID string, statuses []models.ReservationStatus) (int64, error)
}

// StoreConfigReader exposes the per-store settings owned by the store
// configuration UI.
type StoreConfigReader interface {
	GetDefaultHoldHours(ctx context.Context, storeID string) (int, error)
}

// CacheRepository defines the contract for availability caching
type CacheRepository interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, productID string) error
	Close() error
}
