package middleware

import (
	"net/http"

	"meridian/apperrors"
	"meridian/models"
	"meridian/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only for the listed roles. It must run
// after JWTAuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, apperrors.KindUnauthenticated, "Authentication required")
			return
		}
		if !allowed[caller.Role] {
			utils.JSONError(c, http.StatusForbidden, apperrors.KindAuthorization, "Role not permitted for this endpoint")
			return
		}
		c.Next()
	}
}
