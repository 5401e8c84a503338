package monitor

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gamestore_http_requests_total",
		Help: "HTTP requests handled, by route and status",
	}, []string{"service", "method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamestore_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "method", "route"})

	upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gamestore_gateway_upstream_requests_total",
		Help: "Requests forwarded by the gateway, by target service and outcome",
	}, []string{"service", "outcome"})

	upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamestore_gateway_upstream_duration_seconds",
		Help:    "Latency of forwarded requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})

	dbQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamestore_db_query_duration_seconds",
		Help:    "SQL statement latency",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"success"})

	redisCmdDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamestore_redis_command_duration_seconds",
		Help:    "Redis command latency",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1},
	}, []string{"command", "success"})

	cacheBackend = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gamestore_cache_backend",
		Help: "Active cache backend (1 = active)",
	}, []string{"backend"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, upstreamRequests, upstreamDuration,
		dbQueryDuration, redisCmdDuration, cacheBackend)
}

// GinMetrics records count and latency of every request, labelled by route template.
func GinMetrics(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(service, c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(service, c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveUpstream records one forwarded call. outcome is e.g. "ok", "timeout", "error", "unavailable".
func ObserveUpstream(service, outcome string, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(service, outcome).Inc()
	if elapsed > 0 {
		upstreamDuration.WithLabelValues(service).Observe(elapsed.Seconds())
	}
}

func ObserveQuery(elapsed time.Duration, success bool) {
	dbQueryDuration.WithLabelValues(strconv.FormatBool(success)).Observe(elapsed.Seconds())
}

func ObserveRedis(command string, elapsed time.Duration, success bool) {
	redisCmdDuration.WithLabelValues(command, strconv.FormatBool(success)).Observe(elapsed.Seconds())
}

// SetCacheBackend marks which cache implementation the process ended up with.
func SetCacheBackend(active string) {
	for _, b := range []string{"redis", "memory"} {
		v := 0.0
		if b == active {
			v = 1
		}
		cacheBackend.WithLabelValues(b).Set(v)
	}
}
