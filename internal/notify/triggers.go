// Package notify maps reservation state transitions to outbound notification
// intents. Delivery itself is an external concern behind the dispatcher
// interface; the engine never retries it.
package notify

import (
	"time"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// KindForTransition returns the notification kind triggered by a status
// change, or "" when the transition notifies nobody.
func KindForTransition(oldStatus, newStatus models.ReservationStatus) models.NotificationKind {
	if oldStatus == newStatus {
		return ""
	}

	switch newStatus {
	case models.ReservationStatusConfirmed:
		return models.NotificationKindConfirmation
	case models.ReservationStatusCompleted:
		return models.NotificationKindCompleted
	case models.ReservationStatusCancelled:
		return models.NotificationKindCancelled
	case models.ReservationStatusExpired:
		return models.NotificationKindExpired
	}

	return ""
}

// IntentFor builds the intent for a hold's transition-driven notification.
func IntentFor(reservation *models.Reservation, kind models.NotificationKind, productName string) *models.NotificationIntent {
	return &models.NotificationIntent{
		RecipientID:   reservation.CustomerID,
		Kind:          kind,
		ReservationID: reservation.ReservationID,
		ProductName:   productName,
		Payload: map[string]any{
			"store_id":        reservation.StoreID,
			"quantity":        reservation.Quantity,
			"status":          reservation.Status,
			"hold_expires_at": reservation.HoldExpiresAt,
		},
		Timestamp: time.Now(),
	}
}
