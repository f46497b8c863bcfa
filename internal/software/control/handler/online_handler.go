package handler

import (
	"errors"
	"net/http"
	"strings"

	"driver-link/internal/general/websocket"

	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	Token string `json:"token"`
}

// handleGoOnline brings the driver online. A rejected token is reported as 401 but the driver stays online.
func (handler *ControlHandler) handleGoOnline(c *gin.Context) {
	ctx := c.Request.Context()

	if err := handler.supervisor.GoOnline(ctx); err != nil {
		if errors.Is(err, websocket.ErrAuth) {
			handler.httpError(ctx, c, http.StatusUnauthorized, "Session token rejected, update the token", err)
			return
		}
		handler.httpError(ctx, c, http.StatusInternalServerError, "Failed to go online", err)
		return
	}
	c.JSON(http.StatusOK, handler.supervisor.Status())
}

func (handler *ControlHandler) handleGoOffline(c *gin.Context) {
	ctx := c.Request.Context()

	if err := handler.supervisor.GoOffline(ctx); err != nil {
		handler.httpError(ctx, c, http.StatusInternalServerError, "Failed to go offline", err)
		return
	}
	c.JSON(http.StatusOK, handler.supervisor.Status())
}

func (handler *ControlHandler) handleUpdateToken(c *gin.Context) {
	ctx := c.Request.Context()

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.httpError(ctx, c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		handler.httpError(ctx, c, http.StatusBadRequest, "token is required", nil)
		return
	}

	if err := handler.supervisor.UpdateToken(ctx, strings.TrimSpace(req.Token)); err != nil {
		if errors.Is(err, websocket.ErrAuth) {
			handler.httpError(ctx, c, http.StatusUnauthorized, "Session token rejected", err)
			return
		}
		handler.httpError(ctx, c, http.StatusInternalServerError, "Failed to update token", err)
		return
	}
	c.Status(http.StatusNoContent)
}
