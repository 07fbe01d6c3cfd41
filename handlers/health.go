package handlers

import (
	"net/http"

	"meridian/utils"

	"github.com/gin-gonic/gin"
)

// Health reports liveness plus the last dependency health check.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	state := "ok"
	if !status.CheckedAt.IsZero() && !status.Healthy() {
		state = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": state, "mongo": status.Mongo, "redis": status.Redis, "checkedAt": status.CheckedAt})
}
