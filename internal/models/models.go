package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus represents the state of a hold
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
)

// IsTerminal reports whether no further transitions are permitted from s.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusExpired:
		return true
	}
	return false
}

// NonTerminalStatuses are the statuses a hold can still transition out of.
var NonTerminalStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusConfirmed,
}

// Product represents the product table structure. AvailableStock already
// excludes held units; it is the sellable count shown to browsers.
type Product struct {
	ProductID      string    `db:"product_id" json:"product_id"`
	StoreID        string    `db:"store_id" json:"store_id"`
	Name           string    `db:"name" json:"name"`
	AvailableStock int       `db:"available_stock" json:"available_stock"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Reservation represents the reservation table structure
type Reservation struct {
	ReservationID  uuid.UUID         `db:"reservation_id" json:"reservation_id"`
	ProductID      string            `db:"product_id" json:"product_id"`
	StoreID        string            `db:"store_id" json:"store_id"`
	CustomerID     string            `db:"customer_id" json:"customer_id"`
	EmployeeID     *string           `db:"employee_id" json:"employee_id,omitempty"`
	Quantity       int               `db:"quantity" json:"quantity"`
	Variant        *string           `db:"variant" json:"variant,omitempty"`
	Status         ReservationStatus `db:"status" json:"status"`
	HoldExpiresAt  time.Time         `db:"hold_expires_at" json:"hold_expires_at"`
	RenewalCount   int               `db:"renewal_count" json:"renewal_count"`
	RescheduledAt  *time.Time        `db:"rescheduled_at" json:"rescheduled_at,omitempty"`
	LastNotifiedAt *time.Time        `db:"last_notified_at" json:"last_notified_at,omitempty"`
	IdempotencyKey string            `db:"idempotency_key" json:"idempotency_key"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// StoreConfig holds per-store reservation settings, owned by the store
// configuration UI. The engine only reads it.
type StoreConfig struct {
	StoreID          string    `db:"store_id" json:"store_id"`
	DefaultHoldHours int       `db:"default_hold_hours" json:"default_hold_hours"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// NotificationKind identifies the trigger behind a notification intent
type NotificationKind string

const (
	NotificationKindConfirmation NotificationKind = "confirmation"
	NotificationKindNearExpiry   NotificationKind = "near-expiry"
	NotificationKindExpired      NotificationKind = "expired"
	NotificationKindRenewed      NotificationKind = "renewed"
	NotificationKindRescheduled  NotificationKind = "rescheduled"
	NotificationKindCancelled    NotificationKind = "cancelled"
	NotificationKindCompleted    NotificationKind = "pickup-completed"
)

// NotificationIntent is handed to the dispatcher. The engine never persists
// it and never retries delivery.
type NotificationIntent struct {
	RecipientID   string           `json:"recipient_id"`
	Kind          NotificationKind `json:"kind"`
	ReservationID uuid.UUID        `json:"reservation_id"`
	ProductName   string           `json:"product_name"`
	Payload       map[string]any   `json:"payload,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// PurgeResult reports what a bulk cleanup removed, for auditability.
type PurgeResult struct {
	StoreID        string `json:"store_id"`
	RecordsRemoved int    `json:"records_removed"`
	UnitsRestored  int    `json:"units_restored"`
}

// PurgePreview reports the per-status counts a purge would affect, shown to
// the operator before the confirmation step.
type PurgePreview struct {
	StoreID string                    `json:"store_id"`
	Counts  map[ReservationStatus]int `json:"counts"`
	Total   int                       `json:"total"`
}
