package middleware

import (
	"net/http"
	"strings"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the bearer token and stores the identity in the
// request context.
func AuthMiddleware(verifier ports.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		identity, err := verifier.VerifyIdentity(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", identity.UserID)
		c.Set("username", identity.Username)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves an identity when a token is present but
// never rejects the request.
func OptionalAuthMiddleware(verifier ports.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if identity, err := verifier.VerifyIdentity(c.Request.Context(), parts[1]); err == nil {
				c.Set("user_id", identity.UserID)
				c.Set("username", identity.Username)
			}
		}

		c.Next()
	}
}
