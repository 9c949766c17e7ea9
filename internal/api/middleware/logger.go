package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cryptodash-backtest/internal/logger"
	"github.com/yourusername/cryptodash-backtest/internal/metrics"
)

// Logger logs every request and records request metrics
func Logger(access *logger.AccessLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		access.LogRequest(c.Request.Method, c.Request.URL.Path, c.ClientIP(), status, latency)
		metrics.RecordHTTPRequest(c.Request.Method, route, status, latency.Seconds())
	}
}
