package utils

import (
	"net/http"

	"meridian/apperrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Code    string         `json:"code"`
	Reason  string         `json:"reason,omitempty"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Code:    string(apperrors.KindInternal),
					Message: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// WriteError maps err onto its HTTP status and writes the JSON body.
// Internal errors are logged with their cause and reported without it.
func WriteError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperrors.As(err)
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Warn(appErr.Message, zap.String("code", string(appErr.Kind)), zap.String("path", c.FullPath()))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(appErr.Kind),
		Reason:  appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, code apperrors.Kind, message string) {
	GetLogger().Warn(message, zap.Int("status", status))
	c.AbortWithStatusJSON(status, ErrorResponse{Code: string(code), Message: message})
}
