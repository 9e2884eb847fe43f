package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Crekold/vet-backend-sub000/internal/usecase"
)

const claimsContextKey = "claims"

// RequireAuth validates the bearer token and stores its claims on the context.
func RequireAuth(credentials *usecase.CredentialService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		claims, err := credentials.ParseAccessToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Set(AccountIDKey, claims.AccountID)

		c.Next()
	}
}

// GetClaims retrieves the validated access token claims set by RequireAuth.
func GetClaims(c *gin.Context) *usecase.AccessTokenClaims {
	raw, exists := c.Get(claimsContextKey)
	if !exists {
		return nil
	}

	claims, ok := raw.(*usecase.AccessTokenClaims)
	if !ok {
		return nil
	}

	return claims
}
