package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"aulanet/internal/infrastructure/monitoring"
)

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware(collector *monitoring.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
