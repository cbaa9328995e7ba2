package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// routeUnmatched labels requests no route claimed, so stray paths cannot
// grow the label set.
const routeUnmatched = "unmatched"

// unrecordedPaths are scraped or probed often enough to drown out shell traffic.
var unrecordedPaths = map[string]bool{
	"/metrics": true,
	"/healthz": true,
}

// RequestMetrics counts and times web shell requests by route. It is a
// pass-through unless m is the Prometheus recorder.
func RequestMetrics(m Recorder) gin.HandlerFunc {
	prom, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if unrecordedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		prom.HTTPRequestsInFlight.Inc()
		start := time.Now()
		c.Next()
		prom.HTTPRequestsInFlight.Dec()

		// every proxied call shares the "/api/*path" route label
		route := routeLabel(c.FullPath())
		prom.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Inc()
		prom.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

func routeLabel(fullPath string) string {
	if fullPath == "" {
		return routeUnmatched
	}
	return fullPath
}
