package middleware

import (
	"net/http"
	"strings"

	"meridian/apperrors"
	"meridian/models"
	"meridian/utils"

	"github.com/gin-gonic/gin"
)

// CallerKey is the gin context key holding the authenticated models.Caller.
const CallerKey = "caller"

// JWTAuthMiddleware requires a valid bearer token and stores the caller.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, apperrors.KindUnauthenticated, "Missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		caller, err := utils.ValidateToken(tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, apperrors.KindUnauthenticated, "Invalid token")
			return
		}
		c.Set(CallerKey, caller)
		c.Next()
	}
}

// GetCaller returns the caller stored by JWTAuthMiddleware.
func GetCaller(c *gin.Context) (models.Caller, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return models.Caller{}, false
	}
	caller, ok := v.(models.Caller)
	return caller, ok
}
