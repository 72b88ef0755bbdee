package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Synchronous batch evaluations legitimately run for minutes; anything else
// this slow deserves a warning.
const slowRequestThreshold = 10 * time.Second

// Logger logs one line per request. Liveness probes are skipped to keep the
// log readable; server errors and slow non-batch requests are elevated.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if path == "/api/v2/ping" || path == "/api/v2/health" {
			return
		}

		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case latency > slowRequestThreshold && path != "/api/v2/evaluations/batch":
			log.Warn("slow request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
