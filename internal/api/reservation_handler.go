package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/interfaces"
	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// ReservationHandler handles HTTP requests for the reservation engine
type ReservationHandler struct {
	engine  interfaces.ReservationEngine
	cleanup interfaces.CleanupService
}

// NewReservationHandler creates a new reservation API handler
func NewReservationHandler(engine interfaces.ReservationEngine, cleanup interfaces.CleanupService) *ReservationHandler {
	return &ReservationHandler{
		engine:  engine,
		cleanup: cleanup,
	}
}

// SetupRoutes sets up the HTTP routes
func (h *ReservationHandler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(corsMiddleware())

	r.GET("/health", h.healthCheck)

	api := r.Group("/api/v1")
	{
		api.POST("/products/:id/holds", h.createHold)
		api.GET("/products/:id/availability", h.getAvailability)

		api.GET("/holds/:id", h.getHold)
		api.POST("/holds/:id/confirm", h.confirm)
		api.POST("/holds/:id/complete", h.complete)
		api.POST("/holds/:id/cancel", h.cancel)
		api.POST("/holds/:id/renew", h.renew)
		api.POST("/holds/:id/reschedule", h.reschedule)

		api.GET("/stores/:id/holds/purge-preview", h.purgePreview)
		api.POST("/stores/:id/holds/purge", h.purge)
	}

	return r
}

// createHold handles hold creation requests
func (h *ReservationHandler) createHold(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		Response.ValidationError(c, "id", "Product ID is required")
		return
	}

	var req models.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind create hold request")
		Response.BindError(c, err)
		return
	}

	reservation, err := h.engine.CreateHold(c.Request.Context(), productID, &req)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to create hold")
		Response.EngineError(c, err)
		return
	}

	Response.Created(c, models.NewHoldResponse(reservation))
}

// getHold returns a single reservation
func (h *ReservationHandler) getHold(c *gin.Context) {
	reservationID, ok := h.reservationID(c)
	if !ok {
		return
	}

	reservation, err := h.engine.GetHold(c.Request.Context(), reservationID)
	if err != nil {
		Response.EngineError(c, err)
		return
	}

	Response.Success(c, models.NewHoldResponse(reservation))
}

// confirm handles staff pickup acknowledgements
func (h *ReservationHandler) confirm(c *gin.Context) {
	h.transition(c, "confirm", h.engine.Confirm)
}

// complete handles pickup completion
func (h *ReservationHandler) complete(c *gin.Context) {
	h.transition(c, "complete", h.engine.Complete)
}

// cancel handles customer or staff cancellation. Cancelling an already
// terminal hold is a benign no-op, not an error dialog.
func (h *ReservationHandler) cancel(c *gin.Context) {
	reservationID, ok := h.reservationID(c)
	if !ok {
		return
	}

	reservation, err := h.engine.Cancel(c.Request.Context(), reservationID)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyTerminal) {
			Response.Benign(c, models.NewHoldResponse(reservation), models.ErrorKindAlreadyTerminal, "Reservation already finished, nothing to do")
			return
		}
		log.Error().Err(err).Str("reservation_id", reservationID.String()).Msg("Failed to cancel hold")
		Response.EngineError(c, err)
		return
	}

	Response.Success(c, models.NewHoldResponse(reservation))
}

// renew handles hold renewal requests
func (h *ReservationHandler) renew(c *gin.Context) {
	reservationID, ok := h.reservationID(c)
	if !ok {
		return
	}

	var req models.RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind renew request")
		Response.BindError(c, err)
		return
	}

	reservation, err := h.engine.Renew(c.Request.Context(), reservationID, req.ExtraHours)
	if err != nil {
		log.Error().Err(err).Str("reservation_id", reservationID.String()).Msg("Failed to renew hold")
		Response.EngineError(c, err)
		return
	}

	Response.Success(c, models.NewHoldResponse(reservation))
}

// reschedule defers a hold by the configured offset
func (h *ReservationHandler) reschedule(c *gin.Context) {
	h.transition(c, "reschedule", h.engine.Reschedule)
}

// getAvailability handles product availability requests
func (h *ReservationHandler) getAvailability(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		Response.ValidationError(c, "id", "Product ID is required")
		return
	}

	availability, err := h.engine.GetAvailability(c.Request.Context(), productID)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to get availability")
		Response.EngineError(c, err)
		return
	}

	Response.Success(c, availability)
}

// purgePreview reports what a purge would affect, for the confirmation step
func (h *ReservationHandler) purgePreview(c *gin.Context) {
	storeID := c.Param("id")
	if storeID == "" {
		Response.ValidationError(c, "id", "Store ID is required")
		return
	}

	preview, err := h.cleanup.PreviewPurge(c.Request.Context(), storeID)
	if err != nil {
		log.Error().Err(err).Str("store_id", storeID).Msg("Failed to preview purge")
		Response.EngineError(c, err)
		return
	}

	Response.Success(c, preview)
}

// purge executes a bulk cleanup for a store
func (h *ReservationHandler) purge(c *gin.Context) {
	storeID := c.Param("id")
	if storeID == "" {
		Response.ValidationError(c, "id", "Store ID is required")
		return
	}

	var req models.PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind purge request")
		Response.BindError(c, err)
		return
	}

	if !req.Confirmed {
		Response.ValidationError(c, "confirmed", "Purge requires explicit confirmation")
		return
	}

	var result *models.PurgeResult
	var err error
	if req.Status == "ALL" {
		result, err = h.cleanup.PurgeAll(c.Request.Context(), storeID)
	} else {
		result, err = h.cleanup.PurgeByStatus(c.Request.Context(), storeID, models.ReservationStatus(req.Status))
	}
	if err != nil {
		log.Error().Err(err).Str("store_id", storeID).Str("status", req.Status).Msg("Failed to purge holds")
		Response.EngineError(c, err)
		return
	}

	Response.Success(c, result)
}

// transition runs a body-less state machine operation
func (h *ReservationHandler) transition(c *gin.Context, name string, op func(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)) {
	reservationID, ok := h.reservationID(c)
	if !ok {
		return
	}

	reservation, err := op(c.Request.Context(), reservationID)
	if err != nil {
		log.Error().Err(err).
			Str("reservation_id", reservationID.String()).
			Str("operation", name).
			Msg("Hold transition failed")
		Response.EngineError(c, err)
		return
	}

	Response.Success(c, models.NewHoldResponse(reservation))
}

// healthCheck handles health check requests
func (h *ReservationHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "reservation-engine",
	})
}

// reservationID parses the :id path parameter
func (h *ReservationHandler) reservationID(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	if idStr == "" {
		Response.ValidationError(c, "id", "Reservation ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		Response.ValidationError(c, "id", "Invalid reservation ID format")
		return uuid.Nil, false
	}

	return id, true
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Header("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
