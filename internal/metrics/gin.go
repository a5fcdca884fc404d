package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware records request count and latency by route template.
// Unmatched routes are reported as "unmatched" to keep label cardinality flat.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
