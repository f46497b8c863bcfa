package handler

import (
	"errors"
	"net/http"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/general/position"

	"github.com/gin-gonic/gin"
)

type positionRequest struct {
	Lat        *float64   `json:"lat"`
	Lng        *float64   `json:"lng"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
}

func (req positionRequest) point() (geo.Point, error) {
	if req.Lat == nil || req.Lng == nil {
		return geo.Point{}, errors.New("lat and lng are required")
	}
	pt := geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	return pt, pt.Validate()
}

// handleUpdatePosition feeds the latest fix used by telemetry.
func (handler *ControlHandler) handleUpdatePosition(c *gin.Context) {
	ctx := c.Request.Context()

	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.httpError(ctx, c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	pt, err := req.point()
	if err != nil {
		handler.httpError(ctx, c, http.StatusBadRequest, err.Error(), err)
		return
	}

	sample := geo.Sample{Latitude: pt.Lat, Longitude: pt.Lng}
	if req.CapturedAt != nil {
		sample.CapturedAt = *req.CapturedAt
	}
	if err := handler.supervisor.UpdatePosition(sample); err != nil {
		if errors.Is(err, position.ErrNotAcquired) {
			handler.httpError(ctx, c, http.StatusConflict, "Driver is offline", err)
			return
		}
		handler.httpError(ctx, c, http.StatusBadRequest, err.Error(), err)
		return
	}
	c.Status(http.StatusNoContent)
}
