package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

const reservationColumns = `reservation_id, product_id, store_id, customer_id, employee_id, quantity, variant,
	status, hold_expires_at, renewal_count, rescheduled_at, last_notified_at, idempotency_key, created_at, updated_at`

// ReservationRepository handles database operations for products and holds.
// Stock and status mutations that belong together run in one transaction, so
// a crash can never leave stock decremented without a matching hold.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// GetProduct retrieves a product by ID
func (r *ReservationRepository) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	query := `SELECT product_id, store_id, name, available_stock, updated_at
			  FROM product WHERE product_id = $1`

	err := r.db.GetContext(ctx, &product, query, productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// IncrementStock returns units to the sellable count. A single conditional
// write, serialized per product by the row lock Postgres takes for it.
func (r *ReservationRepository) IncrementStock(ctx context.Context, productID string, qty int) error {
	return incrementStock(ctx, r.db, productID, qty)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func incrementStock(ctx context.Context, e execer, productID string, qty int) error {
	query := `UPDATE product
			  SET available_stock = available_stock + $2, updated_at = NOW()
			  WHERE product_id = $1`

	result, err := e.ExecContext(ctx, query, productID, qty)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Int("qty", qty).Msg("Failed to restore stock")
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rowsAffected == 0 {
		// A hold exists for a product that no longer does; restoring its
		// units has nowhere to go.
		log.Error().Str("product_id", productID).Int("qty", qty).Msg("Stock restoration targeted a missing product")
		return fmt.Errorf("restore stock for %s: %w", productID, models.ErrStockInconsistency)
	}

	return nil
}

// decrementStock removes units from the sellable count, failing with
// ErrInsufficientStock rather than clamping. Zero rows with an existing
// product means the post-decrement value would have gone negative.
func decrementStock(ctx context.Context, tx *sqlx.Tx, productID string, qty int) error {
	query := `UPDATE product
			  SET available_stock = available_stock - $2, updated_at = NOW()
			  WHERE product_id = $1 AND available_stock >= $2`

	result, err := tx.ExecContext(ctx, query, productID, qty)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Int("qty", qty).Msg("Failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM product WHERE product_id = $1)`, productID); err != nil {
			return fmt.Errorf("failed to check product existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("product %s: %w", productID, models.ErrProductNotFound)
		}
		return fmt.Errorf("product %s, requested %d: %w", productID, qty, models.ErrInsufficientStock)
	}

	return nil
}

// CreateHold decrements available stock and inserts the reservation in one
// transaction. Either both writes commit or neither does.
func (r *ReservationRepository) CreateHold(ctx context.Context, reservation *models.Reservation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := decrementStock(ctx, tx, reservation.ProductID, reservation.Quantity); err != nil {
		return err
	}

	query := `INSERT INTO reservation (reservation_id, product_id, store_id, customer_id, employee_id, quantity,
				  variant, status, hold_expires_at, renewal_count, idempotency_key, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, NOW(), NOW())`

	_, err = tx.ExecContext(ctx, query, reservation.ReservationID, reservation.ProductID, reservation.StoreID,
		reservation.CustomerID, reservation.EmployeeID, reservation.Quantity, reservation.Variant,
		reservation.Status, reservation.HoldExpiresAt, reservation.IdempotencyKey)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Unique index on idempotency_key: a concurrent retry with
			// the same key won the insert. The deferred rollback undoes
			// this transaction's decrement.
			return fmt.Errorf("idempotency key %s: %w", reservation.IdempotencyKey, models.ErrDuplicateRequest)
		}
		log.Error().Err(err).Str("reservation_id", reservation.ReservationID.String()).Msg("Failed to insert reservation")
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hold creation: %w", err)
	}

	now := time.Now()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	return nil
}

// TransitionHold performs a status-guarded update. The guard on the previous
// status is what makes terminal transitions race-safe: however many Cancel,
// Expire and Complete attempts target the same hold, exactly one wins the
// guarded write, and only the winner restores stock.
func (r *ReservationRepository) TransitionHold(ctx context.Context, reservationID uuid.UUID, from []models.ReservationStatus, to models.ReservationStatus, expiresAt *time.Time, restock bool) (*models.Reservation, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var query string
	args := []interface{}{reservationID, to, pq.Array(statusStrings(from))}
	if expiresAt != nil {
		query = `UPDATE reservation
				 SET status = $2, hold_expires_at = $4, updated_at = NOW()
				 WHERE reservation_id = $1 AND status = ANY($3)
				 RETURNING ` + reservationColumns
		args = append(args, *expiresAt)
	} else {
		query = `UPDATE reservation
				 SET status = $2, updated_at = NOW()
				 WHERE reservation_id = $1 AND status = ANY($3)
				 RETURNING ` + reservationColumns
	}

	var reservation models.Reservation
	err = tx.GetContext(ctx, &reservation, query, args...)
	if err == sql.ErrNoRows {
		// Lost the guard. Report the row as it stands so the caller can
		// tell a terminal no-op from a missing record.
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		current, err := r.GetReservation(ctx, reservationID)
		if err != nil {
			return nil, false, err
		}
		if current == nil {
			return nil, false, fmt.Errorf("reservation %s: %w", reservationID, models.ErrReservationNotFound)
		}
		return current, false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("reservation_id", reservationID.String()).Msg("Failed to transition reservation")
		return nil, false, fmt.Errorf("failed to transition reservation: %w", err)
	}

	if restock {
		if err := incrementStock(ctx, tx, reservation.ProductID, reservation.Quantity); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transition: %w", err)
	}

	return &reservation, true, nil
}

// ExtendHold pushes hold_expires_at forward, guarded on `from`. No stock
// effect: the units were already held. When renewalCap > 0 the write is a
// renewal, and the cap lives in the same predicate as the status guard:
// concurrent renewals at the cap boundary serialize on the row, and only
// writes that keep renewal_count within the cap commit.
func (r *ReservationRepository) ExtendHold(ctx context.Context, reservationID uuid.UUID, from []models.ReservationStatus, newExpiry time.Time, renewalCap int, markReschedule bool) (*models.Reservation, bool, error) {
	query := `UPDATE reservation
			  SET hold_expires_at = $2, updated_at = NOW()`
	args := []interface{}{reservationID, newExpiry, pq.Array(statusStrings(from))}
	if renewalCap > 0 {
		query += `, renewal_count = renewal_count + 1`
	}
	if markReschedule {
		query += `, rescheduled_at = NOW()`
	}
	query += ` WHERE reservation_id = $1 AND status = ANY($3)`
	if renewalCap > 0 {
		query += ` AND renewal_count < $4`
		args = append(args, renewalCap)
	}
	query += ` RETURNING ` + reservationColumns

	var reservation models.Reservation
	err := r.db.GetContext(ctx, &reservation, query, args...)
	if err == sql.ErrNoRows {
		current, err := r.GetReservation(ctx, reservationID)
		if err != nil {
			return nil, false, err
		}
		if current == nil {
			return nil, false, fmt.Errorf("reservation %s: %w", reservationID, models.ErrReservationNotFound)
		}
		return current, false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("reservation_id", reservationID.String()).Msg("Failed to extend hold")
		return nil, false, fmt.Errorf("failed to extend hold: %w", err)
	}

	return &reservation, true, nil
}

// GetReservation retrieves a reservation by ID
func (r *ReservationRepository) GetReservation(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservation WHERE reservation_id = $1`

	err := r.db.GetContext(ctx, &reservation, query, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Error().Err(err).Str("reservation_id", reservationID.String()).Msg("Failed to get reservation")
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	return &reservation, nil
}

// GetReservationByIdempotencyKey retrieves a reservation by idempotency key
func (r *ReservationRepository) GetReservationByIdempotencyKey(ctx context.Context, idempotencyKey string) (*models.Reservation, error) {
	var reservation models.Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservation WHERE idempotency_key = $1`

	err := r.db.GetContext(ctx, &reservation, query, idempotencyKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Error().Err(err).Str("idempotency_key", idempotencyKey).Msg("Failed to get reservation by idempotency key")
		return nil, fmt.Errorf("failed to get reservation by idempotency key: %w", err)
	}

	return &reservation, nil
}

// FindOverdue retrieves non-terminal holds whose expiry has passed
func (r *ReservationRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	query := `SELECT ` + reservationColumns + `
			  FROM reservation
			  WHERE status = ANY($1) AND hold_expires_at <= $2
			  ORDER BY hold_expires_at ASC
			  LIMIT $3`

	err := r.db.SelectContext(ctx, &reservations, query, pq.Array(statusStrings(models.NonTerminalStatuses)), now, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to find overdue reservations")
		return nil, fmt.Errorf("failed to find overdue reservations: %w", err)
	}

	return reservations, nil
}

// FindNearExpiry retrieves non-terminal holds expiring within the warning
// window that have not been notified within the cooldown.
func (r *ReservationRepository) FindNearExpiry(ctx context.Context, now time.Time, window, cooldown time.Duration, limit int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	query := `SELECT ` + reservationColumns + `
			  FROM reservation
			  WHERE status = ANY($1)
			    AND hold_expires_at > $2
			    AND hold_expires_at <= $3
			    AND (last_notified_at IS NULL OR last_notified_at <= $4)
			  ORDER BY hold_expires_at ASC
			  LIMIT $5`

	err := r.db.SelectContext(ctx, &reservations, query,
		pq.Array(statusStrings(models.NonTerminalStatuses)), now, now.Add(window), now.Add(-cooldown), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to find near-expiry reservations")
		return nil, fmt.Errorf("failed to find near-expiry reservations: %w", err)
	}

	return reservations, nil
}

// MarkNotified stamps the time of the last advisory notification
func (r *ReservationRepository) MarkNotified(ctx context.Context, reservationID uuid.UUID, at time.Time) error {
	query := `UPDATE reservation SET last_notified_at = $2, updated_at = NOW() WHERE reservation_id = $1`

	if _, err := r.db.ExecContext(ctx, query, reservationID, at); err != nil {
		log.Error().Err(err).Str("reservation_id", reservationID.String()).Msg("Failed to mark reservation notified")
		return fmt.Errorf("failed to mark reservation notified: %w", err)
	}

	return nil
}

// CountByStatus returns per-status hold counts for a store
func (r *ReservationRepository) CountByStatus(ctx context.Context, storeID string) (map[models.ReservationStatus]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT status, COUNT(*) AS total FROM reservation WHERE store_id = $1 GROUP BY status`, storeID)
	if err != nil {
		log.Error().Err(err).Str("store_id", storeID).Msg("Failed to count reservations by status")
		return nil, fmt.Errorf("failed to count reservations by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ReservationStatus]int)
	for rows.Next() {
		var status models.ReservationStatus
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// FindByStoreAndStatus retrieves a store's holds in the given statuses
func (r *ReservationRepository) FindByStoreAndStatus(ctx context.Context, storeID string, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	var reservations []models.Reservation
	query := `SELECT ` + reservationColumns + `
			  FROM reservation
			  WHERE store_id = $1 AND status = ANY($2)
			  ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &reservations, query, storeID, pq.Array(statusStrings(statuses)))
	if err != nil {
		log.Error().Err(err).Str("store_id", storeID).Msg("Failed to find reservations by store and status")
		return nil, fmt.Errorf("failed to find reservations by store and status: %w", err)
	}

	return reservations, nil
}

// DeleteByStatus removes a store's holds in the given statuses and returns
// how many rows went away.
func (r *ReservationRepository) DeleteByStatus(ctx context.Context, storeID string, statuses []models.ReservationStatus) (int64, error) {
	query := `DELETE FROM reservation WHERE store_id = $1 AND status = ANY($2)`

	result, err := r.db.ExecContext(ctx, query, storeID, pq.Array(statusStrings(statuses)))
	if err != nil {
		log.Error().Err(err).Str("store_id", storeID).Msg("Failed to delete reservations")
		return 0, fmt.Errorf("failed to delete reservations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rowsAffected, nil
}

func statusStrings(statuses []models.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
