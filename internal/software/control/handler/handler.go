package handler

import (
	"context"
	"net/http"
	"strings"

	"driver-link/internal/general/jwt"
	"driver-link/internal/general/logger"
	"driver-link/internal/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ControlHandler exposes the local control API the driver UI talks to.
type ControlHandler struct {
	supervisor ports.Supervisor
	trips      ports.TripService
	logger     *logger.Logger
	auth       *jwt.Manager
}

// NewControlHandler wires the handler. A nil auth manager leaves the routes open.
func NewControlHandler(
	supervisor ports.Supervisor,
	trips ports.TripService,
	log *logger.Logger,
	auth *jwt.Manager,
) *ControlHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &ControlHandler{supervisor: supervisor, trips: trips, logger: log, auth: auth}
}

// Router builds a gin engine with every control route.
func (handler *ControlHandler) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), handler.requestID())
	handler.RegisterRoutes(engine)
	return engine
}

// RegisterRoutes mounts the control endpoints. /health is never authenticated.
func (handler *ControlHandler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", handler.handleHealth)

	api := engine.Group("/")
	if handler.auth != nil {
		api.Use(jwt.GinAuth(handler.auth, jwt.RoleOperator))
	}

	api.GET("/status", handler.handleStatus)
	api.POST("/online", handler.handleGoOnline)
	api.POST("/offline", handler.handleGoOffline)
	api.PUT("/token", handler.handleUpdateToken)
	api.PUT("/position", handler.handleUpdatePosition)

	trip := api.Group("/trip")
	trip.POST("/arrived-pickup", handler.handleArrivedAtPickup)
	trip.POST("/start", handler.handleStartTrip)
	trip.POST("/arrived-drop", handler.handleArrivedAtDrop)
	trip.POST("/end", handler.handleEndTrip)
	trip.POST("/cancel", handler.handleCancel)
	trip.GET("/details", handler.handleDetails)
}

// ----- general helpers -----

const requestIDHeader = "X-Request-ID"

// requestID takes the caller's X-Request-ID or makes one, and carries it in the request context.
func (handler *ControlHandler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(handler.logger.WithRequestID(c.Request.Context(), reqID))
		c.Next()
	}
}

// httpError logs and sends a JSON error response.
func (handler *ControlHandler) httpError(ctx context.Context, c *gin.Context, status int, msg string, err error) {
	action := "request_failed"
	switch {
	case status >= http.StatusInternalServerError:
		action = "http_internal_error"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	}
	if status >= http.StatusInternalServerError {
		handler.logger.Error(ctx, action, msg, err, map[string]any{"path": c.FullPath()})
	} else {
		handler.logger.Warn(ctx, action, msg, err, map[string]any{"path": c.FullPath()})
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
