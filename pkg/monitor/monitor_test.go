package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMetrics(t *testing.T) {
	r := gin.New()
	r.Use(GinMetrics("monitor-test"))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/2", nil))

	got := testutil.ToFloat64(httpRequests.WithLabelValues("monitor-test", http.MethodGet, "/items/:id", "418"))
	assert.Equal(t, 2.0, got)
}

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequests.WithLabelValues("cart-service", "timeout"))
	ObserveUpstream("cart-service", "timeout", 5*time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(upstreamRequests.WithLabelValues("cart-service", "timeout")))
}

func TestSetCacheBackend(t *testing.T) {
	SetCacheBackend("memory")
	assert.Equal(t, 1.0, testutil.ToFloat64(cacheBackend.WithLabelValues("memory")))
	assert.Equal(t, 0.0, testutil.ToFloat64(cacheBackend.WithLabelValues("redis")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveQuery(time.Millisecond, true)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "gamestore_db_query_duration_seconds"))
}
