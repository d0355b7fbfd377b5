package middleware

import (
	"strconv"
	"time"

	"cuentacorriente/internal/infra"

	"github.com/gin-gonic/gin"
)

// Metrics records request latency by route template (not raw path, to keep
// label cardinality bounded).
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		infra.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
