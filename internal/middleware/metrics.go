package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ingenia-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records every request under its route template. Requests that match no route share
// one label, and the routes in skip (health checks, the scrape endpoint) are not recorded at all.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}

	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
