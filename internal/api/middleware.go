package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// ResponseHelpers provides methods for REST-native responses
type ResponseHelpers struct{}

// Success sends a 200 with the operation result envelope
func (h *ResponseHelpers) Success(c *gin.Context, data any) {
	c.JSON(200, models.OperationResult{Success: true, Data: data})
}

// Created sends a 201 with the created resource
func (h *ResponseHelpers) Created(c *gin.Context, data any) {
	c.JSON(201, models.OperationResult{Success: true, Data: data})
}

// Benign sends a 200 for idempotent no-ops such as cancelling a hold that is
// already terminal: "nothing to do", not an error dialog.
func (h *ResponseHelpers) Benign(c *gin.Context, data any, kind models.ErrorKind, message string) {
	c.JSON(200, models.OperationResult{Success: true, Data: data, ErrorKind: kind, Message: message})
}

func (h *ResponseHelpers) ValidationError(c *gin.Context, field, message string) {
	h.setRequestIDHeader(c)
	c.JSON(400, models.NewValidationProblem(field, message))
}

// EngineError maps the engine's error taxonomy to an HTTP response
func (h *ResponseHelpers) EngineError(c *gin.Context, err error) {
	h.setRequestIDHeader(c)
	kind := models.KindForError(err)

	switch kind {
	case models.ErrorKindInsufficientStock:
		c.JSON(409, models.NewBusinessProblem(409, "Insufficient Stock", err.Error(), kind))
	case models.ErrorKindProductNotFound:
		c.JSON(404, models.NewNotFoundProblem("Product"))
	case models.ErrorKindReservationNotFound:
		c.JSON(404, models.NewNotFoundProblem("Reservation"))
	case models.ErrorKindInvalidTransition:
		c.JSON(422, models.NewBusinessProblem(422, "Invalid Transition", err.Error(), kind))
	case models.ErrorKindRenewalLimitExceeded:
		c.JSON(422, models.NewBusinessProblem(422, "Renewal Limit Exceeded", err.Error(), kind))
	case models.ErrorKindDuplicateRequest:
		c.JSON(409, models.NewBusinessProblem(409, "Duplicate Request", err.Error(), kind))
	case models.ErrorKindValidationError:
		c.JSON(400, models.NewProblemDetails(400, "Validation Failed", err.Error()))
	case models.ErrorKindStockInconsistency:
		// Internal invariant violation, surfaced loudly.
		log.Error().
			Str("request_id", getRequestID(c)).
			Err(err).
			Msg("Stock inconsistency detected")
		c.JSON(500, models.NewProblemDetails(500, "Stock Inconsistency", "An internal inventory invariant was violated"))
	default:
		h.InternalError(c, err.Error())
	}
}

// NotFound sends a 404 not found response
func (h *ResponseHelpers) NotFound(c *gin.Context, resource string) {
	h.setRequestIDHeader(c)
	c.JSON(404, models.NewNotFoundProblem(resource))
}

// InternalError sends a 500 internal server error response
func (h *ResponseHelpers) InternalError(c *gin.Context, detail string) {
	h.setRequestIDHeader(c)

	// Log for debugging but don't expose internals.
	log.Error().
		Str("request_id", getRequestID(c)).
		Str("detail", detail).
		Msg("Internal server error")

	c.JSON(500, models.NewProblemDetails(500, "Internal Server Error", "An unexpected error occurred"))
}

func (h *ResponseHelpers) setRequestIDHeader(c *gin.Context) {
	if requestID := getRequestID(c); requestID != "" {
		c.Header("X-Request-ID", requestID)
	}
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		return requestID.(string)
	}
	return ""
}

// BindError turns a gin binding failure into a problem response
func (h *ResponseHelpers) BindError(c *gin.Context, err error) {
	h.setRequestIDHeader(c)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		first := validationErrors[0]
		c.JSON(400, models.NewValidationProblem(strings.ToLower(first.Field()), validationMessage(first)))
		return
	}

	c.JSON(400, models.NewValidationProblem("request", "Invalid request format"))
}

func validationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too small"
	case "max":
		return "Value is too large"
	default:
		return "Invalid value"
	}
}

// Response is a global instance for easy access
var Response = &ResponseHelpers{}
