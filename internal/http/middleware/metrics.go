// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file instruments HTTP traffic with the collectors registered in the
// observability package. Labels are bounded: method, the registered route
// template (raw path only when no route matched) and the numeric status.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feed-backend/internal/observability"
)

// Metrics returns a Gin middleware recording request count, latency,
// in-flight requests and response size. Routes in skipPaths (typically
// /metrics itself) are not recorded.
func Metrics(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.FullPath()]; ok {
			c.Next()
			return
		}

		start := time.Now()
		observability.HTTPInflight.Inc()
		defer observability.HTTPInflight.Dec()

		c.Next()

		path := routeOf(c)
		method := c.Request.Method
		observability.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		observability.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written.
		if size := c.Writer.Size(); size >= 0 {
			observability.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
