package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/backmeup/backmeup/internal/auth/jwt"
	"github.com/backmeup/backmeup/internal/auth/storage"
)

const (
	claimsKey = "claims"
	tokenKey  = "token"
)

// JWTAuthMiddleware creates a middleware that validates JWT tokens and
// rejects tokens revoked by logout.
func JWTAuthMiddleware(jwtService *jwt.Service, tokens storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Check if the header has the Bearer prefix
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Validate the token
		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		revoked, err := tokens.IsRevoked(c.Request.Context(), parts[1])
		if err != nil || revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Add the claims and raw token to the context
		c.Set(claimsKey, claims)
		c.Set(tokenKey, parts[1])
		c.Next()
	}
}

// GetClaims returns the authenticated user's claims from the context.
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// GetToken returns the raw bearer token from the context.
func GetToken(c *gin.Context) (string, bool) {
	v, ok := c.Get(tokenKey)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}
