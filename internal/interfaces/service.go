package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// ReservationEngine defines the caller-facing operations of the engine
type ReservationEngine interface {
	CreateHold(ctx context.Context, productID string, req *models.CreateHoldRequest) (*models.Reservation, error)
	Confirm(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	Complete(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	Expire(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	Renew(ctx context.Context, reservationID uuid.UUID, extraHours int) (*models.Reservation, error)
	Reschedule(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)

	GetHold(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	GetAvailability(ctx context.Context, productID string) (*models.AvailabilityResponse, error)
}

// CleanupService defines the operator-facing bulk cleanup operations
type CleanupService interface {
	PreviewPurge(ctx context.Context, storeID string) (*models.PurgePreview, error)
	PurgeByStatus(ctx context.Context, storeID string, status models.ReservationStatus) (*models.PurgeResult, error)
	PurgeAll(ctx context.Context, storeID string) (*models.PurgeResult, error)
}
