package handlers

import (
	"meridian/apperrors"
	"meridian/middleware"
	"meridian/models"
	"meridian/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger returns the request scoped logger set by middleware.RequestLogger,
// or the global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// callerOrAbort fetches the authenticated caller and writes a 401 when absent.
func callerOrAbort(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		utils.WriteError(c, getLogger(c), apperrors.Unauthenticated("authentication required"))
	}
	return caller, ok
}

// bindJSON decodes the body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.WriteError(c, getLogger(c), apperrors.Validation("invalid request body").
			WithDetails(map[string]any{"error": err.Error()}))
		return false
	}
	return true
}
