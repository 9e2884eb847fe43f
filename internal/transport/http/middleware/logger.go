package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applogger "github.com/Crekold/vet-backend-sub000/internal/infra/logger"
)

// accessLogSkip lists paths too noisy to log per hit.
var accessLogSkip = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Logger emits one access-log line per request. Server errors log at error
// level, client errors at warn, everything else at info. Liveness and scrape
// paths are skipped entirely.
func Logger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if _, skip := accessLogSkip[path]; skip {
			return
		}

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", applogger.MaskIP(c.ClientIP())),
			zap.String("request_id", applogger.RequestIDFrom(c.Request.Context())),
			zap.String("trace_id", GetTraceID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
