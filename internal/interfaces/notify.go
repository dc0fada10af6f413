package interfaces

import (
	"context"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// NotificationDispatcher delivers notification intents to the outside world.
// Delivery is fire-and-forget from the engine's point of view: a committed
// state transition is authoritative regardless of dispatch outcome.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, intent *models.NotificationIntent) error
	Close() error
}
