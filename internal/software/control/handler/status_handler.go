package handler

import (
	"net/http"

	"driver-link/internal/ports"

	"github.com/gin-gonic/gin"
)

type statusResponse struct {
	Supervisor ports.SupervisorStatus `json:"supervisor"`
	Trip       ports.TripSnapshot     `json:"trip"`
}

func (handler *ControlHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (handler *ControlHandler) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Supervisor: handler.supervisor.Status(),
		Trip:       handler.trips.Snapshot(),
	})
}
