package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProblemTypeValidationError = "validation-error"
	ProblemTypeBusinessError   = "business-logic-error"
	ProblemTypeNotFound        = "not-found"
	ProblemTypeInternalError   = "internal-error"
)

// API Request Models

// CreateHoldRequest represents a request to place a hold on a product
type CreateHoldRequest struct {
	StoreID        string  `json:"store_id" binding:"required" validate:"required"`
	CustomerID     string  `json:"customer_id" binding:"required" validate:"required"`
	EmployeeID     *string `json:"employee_id,omitempty"`
	Quantity       int     `json:"quantity" binding:"required,min=1" validate:"required,min=1"`
	Variant        *string `json:"variant,omitempty"`
	IdempotencyKey string  `json:"idempotency_key" binding:"required" validate:"required"`
}

// RenewRequest represents a request to extend a hold
type RenewRequest struct {
	ExtraHours int `json:"extra_hours" binding:"required,min=1" validate:"required,min=1"`
}

// PurgeRequest represents an operator bulk cleanup request. Status is one of
// the terminal statuses, or "ALL" for purge-all.
type PurgeRequest struct {
	Status    string `json:"status" binding:"required" validate:"required"`
	Confirmed bool   `json:"confirmed"`
}

// API Response Models

// OperationResult is the uniform envelope returned to the caller layer
type OperationResult struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// HoldResponse represents a reservation returned by the API
type HoldResponse struct {
	ReservationID uuid.UUID         `json:"reservation_id"`
	ProductID     string            `json:"product_id"`
	StoreID       string            `json:"store_id"`
	CustomerID    string            `json:"customer_id"`
	Quantity      int               `json:"quantity"`
	Variant       *string           `json:"variant,omitempty"`
	Status        ReservationStatus `json:"status"`
	HoldExpiresAt time.Time         `json:"hold_expires_at"`
	RenewalCount  int               `json:"renewal_count"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewHoldResponse maps a stored reservation to its API shape.
func NewHoldResponse(r *Reservation) *HoldResponse {
	return &HoldResponse{
		ReservationID: r.ReservationID,
		ProductID:     r.ProductID,
		StoreID:       r.StoreID,
		CustomerID:    r.CustomerID,
		Quantity:      r.Quantity,
		Variant:       r.Variant,
		Status:        r.Status,
		HoldExpiresAt: r.HoldExpiresAt,
		RenewalCount:  r.RenewalCount,
		CreatedAt:     r.CreatedAt,
	}
}

// AvailabilityResponse represents the response for product availability
type AvailabilityResponse struct {
	ProductID      string    `json:"product_id"`
	StoreID        string    `json:"store_id"`
	Name           string    `json:"name"`
	AvailableStock int       `json:"available_stock"`
	CacheHit       bool      `json:"cache_hit"`
	LastUpdated    time.Time `json:"last_updated"`
}

// ProblemDetails is the RFC-7807 style error body
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
	Code   string `json:"code,omitempty"`
}

func NewProblemDetails(status int, title, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemType(status),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// NewValidationProblem creates a validation error problem
func NewValidationProblem(field, message string) *ProblemDetails {
	return &ProblemDetails{
		Type:   ProblemTypeValidationError,
		Title:  "Validation Failed",
		Status: 400,
		Detail: message,
		Field:  field,
		Code:   string(ErrorKindValidationError),
	}
}

// NewBusinessProblem creates a business logic error problem
func NewBusinessProblem(status int, title, detail string, kind ErrorKind) *ProblemDetails {
	return &ProblemDetails{
		Type:   ProblemTypeBusinessError,
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   string(kind),
	}
}

// NewNotFoundProblem creates a not found error problem
func NewNotFoundProblem(resource string) *ProblemDetails {
	return &ProblemDetails{
		Type:   ProblemTypeNotFound,
		Title:  "Resource Not Found",
		Status: 404,
		Detail: resource + " not found",
	}
}

func problemType(status int) string {
	switch status {
	case 400:
		return ProblemTypeValidationError
	case 404:
		return ProblemTypeNotFound
	case 409, 422:
		return ProblemTypeBusinessError
	default:
		return ProblemTypeInternalError
	}
}
