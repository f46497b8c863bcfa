package handler

import (
	"errors"
	"net/http"

	"driver-link/internal/domain/geo"
	"driver-link/internal/domain/trip"
	"driver-link/internal/general/orderapi"
	tripservice "driver-link/internal/software/trip/service"

	"github.com/gin-gonic/gin"
)

type stepRequest struct {
	positionRequest
	OTP string `json:"otp,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type stepFunc func(c *gin.Context, req stepRequest, pos geo.Point) (trip.Result, error)

func (handler *ControlHandler) handleArrivedAtPickup(c *gin.Context) {
	handler.runStep(c, func(c *gin.Context, _ stepRequest, pos geo.Point) (trip.Result, error) {
		return handler.trips.ArrivedAtPickup(c.Request.Context(), pos)
	})
}

func (handler *ControlHandler) handleStartTrip(c *gin.Context) {
	handler.runStep(c, func(c *gin.Context, req stepRequest, pos geo.Point) (trip.Result, error) {
		return handler.trips.StartTrip(c.Request.Context(), req.OTP, pos)
	})
}

func (handler *ControlHandler) handleArrivedAtDrop(c *gin.Context) {
	handler.runStep(c, func(c *gin.Context, _ stepRequest, pos geo.Point) (trip.Result, error) {
		return handler.trips.ArrivedAtDrop(c.Request.Context(), pos)
	})
}

func (handler *ControlHandler) handleEndTrip(c *gin.Context) {
	handler.runStep(c, func(c *gin.Context, _ stepRequest, pos geo.Point) (trip.Result, error) {
		return handler.trips.EndTrip(c.Request.Context(), pos)
	})
}

// runStep decodes the position and maps the step result: Success 200, Error 422, in flight 409.
// Out-of-range coordinates are still passed on so the step slot records the rejection.
func (handler *ControlHandler) runStep(c *gin.Context, step stepFunc) {
	ctx := c.Request.Context()

	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.httpError(ctx, c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		handler.httpError(ctx, c, http.StatusBadRequest, "lat and lng are required", nil)
		return
	}

	res, err := step(c, req, geo.Point{Lat: *req.Lat, Lng: *req.Lng})
	if errors.Is(err, tripservice.ErrStepInProgress) {
		handler.httpError(ctx, c, http.StatusConflict, "Step already in progress", err)
		return
	}
	if err != nil {
		handler.httpError(ctx, c, http.StatusInternalServerError, "Step failed", err)
		return
	}

	if res.Phase != trip.PhaseSuccess {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": res.Message, "result": res})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message, "result": res})
}

func (handler *ControlHandler) handleCancel(c *gin.Context) {
	ctx := c.Request.Context()

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.httpError(ctx, c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	msg, err := handler.trips.Cancel(ctx, req.Reason)
	if err != nil {
		handler.tripError(c, err, "Failed to cancel order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (handler *ControlHandler) handleDetails(c *gin.Context) {
	details, err := handler.trips.Details(c.Request.Context())
	if err != nil {
		handler.tripError(c, err, "Failed to fetch order details")
		return
	}
	c.JSON(http.StatusOK, details)
}

// tripError maps trip and order API errors to HTTP statuses.
func (handler *ControlHandler) tripError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()
	var stepErr *orderapi.StepError

	switch {
	case errors.Is(err, tripservice.ErrNoActiveOrder):
		handler.httpError(ctx, c, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, tripservice.ErrTripFinished):
		handler.httpError(ctx, c, http.StatusConflict, "Trip already finished", err)
	case errors.As(err, &stepErr):
		handler.httpError(ctx, c, http.StatusUnprocessableEntity, stepErr.Message, err)
	case errors.Is(err, orderapi.ErrNoToken):
		handler.httpError(ctx, c, http.StatusUnauthorized, "Not signed in", err)
	default:
		handler.httpError(ctx, c, http.StatusBadGateway, fallback, err)
	}
}
