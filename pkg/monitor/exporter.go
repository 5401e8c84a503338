package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an http.Handler that serves Prometheus metrics. Useful to mount into
// an existing HTTP server (for example Gin) as a route.
func Handler() http.Handler {
	return promhttp.Handler()
}
