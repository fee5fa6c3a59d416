package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/backmeup/backmeup/internal/common/cnst"
)

// AdminOnlyMiddleware allows only admin and superadmin roles through.
// It must run after JWTAuthMiddleware.
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !cnst.IsAdminRole(claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Next()
	}
}
