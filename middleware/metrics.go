package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/metrics"
)

// RequestMetrics records Prometheus request counters labelled by the matched route.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// the scrape endpoint would only measure itself
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		done := metrics.TrackInFlight()
		defer done()

		start := time.Now()
		c.Next()

		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
