package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Crekold/vet-backend-sub000/internal/infra/logger"
)

// RequestID propagates a per-request correlation id. An inbound X-Request-ID
// is honored only when it parses as a UUID; anything else is replaced, so log
// correlation cannot be polluted by arbitrary client-chosen strings.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Writer.Header().Set("X-Request-ID", id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}
