package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"GameStore/pkg/config"
	"GameStore/pkg/middleware"
	"GameStore/pkg/registry"
	"GameStore/pkg/response"
	"GameStore/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "gateway-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

var testJWT = utils.NewJWT(&config.JWTConfig{Secret: testSecret})

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// recordingTransport answers every call with the given status and body and keeps the requests.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	status   int
	body     string
	header   http.Header
}

func (rt *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
	}
	rt.mu.Lock()
	rt.requests = append(rt.requests, r)
	rt.bodies = append(rt.bodies, string(body))
	rt.mu.Unlock()

	header := http.Header{"Content-Type": []string{"application/json"}}
	for k, v := range rt.header {
		header[k] = v
	}
	status := rt.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(rt.body)),
		Request:    r,
	}, nil
}

func (rt *recordingTransport) calls() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.requests)
}

func newRouter(disc registry.Discovery, transport http.RoundTripper, timeout time.Duration) *gin.Engine {
	g := New(Options{
		Name:      "api-gateway",
		Version:   "1.0.0",
		Routes:    NewRouteTable(DefaultRoutes(), false),
		JWT:       testJWT,
		Discovery: disc,
		Forwarder: NewForwarder(timeout, transport),
	})
	r := gin.New()
	r.Use(middleware.ErrorHandler(true))
	g.Mount(r)
	return r
}

func cartInstance() registry.Static {
	return registry.Static{
		"cart-service": {{ID: "cart-1", ServiceName: "cart-service", Address: "10.0.0.5", Port: 4002}},
		"user-service": {{ID: "user-1", ServiceName: "user-service", Address: "10.0.0.6", Port: 4001}},
		"game-service": {{ID: "game-1", ServiceName: "game-service", Address: "10.0.0.7", Port: 4003}},
	}
}

func accessToken(t *testing.T) string {
	t.Helper()
	tok, err := testJWT.GenerateAccessToken(utils.Identity{UserID: 7, UserName: "alice", Role: "user"})
	require.NoError(t, err)
	return tok
}

func tamper(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.StandardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestForwardsToInstanceWithPrefixStripped(t *testing.T) {
	rt := &recordingTransport{body: `{"success":true}`}
	r := newRouter(cartInstance(), rt, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/items", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Equal(t, 1, rt.calls())
	assert.Equal(t, "http://10.0.0.5:4002/items", rt.requests[0].URL.String())
}

func TestForwardPreservesRequest(t *testing.T) {
	rt := &recordingTransport{status: http.StatusCreated, body: `{"success":true}`, header: http.Header{"X-Request-Id": {"abc"}}}
	r := newRouter(cartInstance(), rt, time.Second)
	token := accessToken(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items?source=web", strings.NewReader(`{"gameId":"1","quantity":2}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("X-Service-Id", "spoofed")
	req.Host = "shop.example.com"
	req.RemoteAddr = "203.0.113.9:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "abc", w.Header().Get("X-Request-Id"))
	require.Equal(t, 1, rt.calls())

	out := rt.requests[0]
	assert.Equal(t, http.MethodPost, out.Method)
	assert.Equal(t, "/items", out.URL.Path)
	assert.Equal(t, "source=web", out.URL.RawQuery)
	assert.Equal(t, `{"gameId":"1","quantity":2}`, rt.bodies[0])
	assert.Equal(t, "Bearer "+token, out.Header.Get("Authorization"))
	assert.Equal(t, "application/json", out.Header.Get("Content-Type"))
	assert.Empty(t, out.Header.Get("Connection"))
	assert.Equal(t, "203.0.113.9", out.Header.Get("X-Forwarded-For"))
	assert.Equal(t, "http", out.Header.Get("X-Forwarded-Proto"))
	assert.Equal(t, "shop.example.com", out.Header.Get("X-Forwarded-Host"))
	assert.Equal(t, "cart-1", out.Header.Get("X-Service-Id"))
}

func TestPublicRouteNeedsNoToken(t *testing.T) {
	rt := &recordingTransport{body: `{"success":true}`}
	r := newRouter(cartInstance(), rt, time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, rt.calls())
	assert.Equal(t, "http://10.0.0.6:4001/login", rt.requests[0].URL.String())
}

func TestMissingTokenRejectedBeforeForwarding(t *testing.T) {
	rt := &recordingTransport{}
	r := newRouter(cartInstance(), rt, time.Second)

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
	}
	assert.Zero(t, rt.calls())
}

func TestInvalidTokenForbidden(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.JWTClaims{
		UserID: 7,
		Type:   utils.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tokens := map[string]string{
		"tampered signature": tamper(accessToken(t)),
		"expired":            expired,
		"garbage":            "not-a-jwt",
	}

	rt := &recordingTransport{}
	r := newRouter(cartInstance(), rt, time.Second)
	for name, tok := range tokens {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, "FORBIDDEN", errorCode(t, w))
		})
	}
	assert.Zero(t, rt.calls())
}

func TestUnknownRoute(t *testing.T) {
	rt := &recordingTransport{}
	r := newRouter(cartInstance(), rt, time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
	assert.Zero(t, rt.calls())
}

func TestNoHealthyInstances(t *testing.T) {
	rt := &recordingTransport{}
	r := newRouter(registry.Static{}, rt, time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, w))
	assert.Zero(t, rt.calls())
}

type failingDiscovery struct{}

func (failingDiscovery) HealthyInstances(context.Context, string) ([]registry.Instance, error) {
	return nil, errors.New("consul down")
}

func TestRegistryFailureIsUnavailable(t *testing.T) {
	rt := &recordingTransport{}
	r := newRouter(failingDiscovery{}, rt, time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Zero(t, rt.calls())
}

func TestDownstreamTimeout(t *testing.T) {
	var calls int32
	slow := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		<-r.Context().Done()
		return nil, r.Context().Err()
	})
	r := newRouter(cartInstance(), slow, 50*time.Millisecond)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games/1", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "GATEWAY_TIMEOUT", errorCode(t, w))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "no retry")
}

func TestDownstreamConnectionFailure(t *testing.T) {
	var calls int32
	refused := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	})
	r := newRouter(cartInstance(), refused, time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games/1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errorCode(t, w))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDownstreamErrorRelayedUnchanged(t *testing.T) {
	body := `{"success":false,"message":"Email already registered","error":{"code":"EMAIL_ALREADY_EXISTS","message":"Email already registered"}}`
	rt := &recordingTransport{status: http.StatusConflict, body: body}
	r := newRouter(cartInstance(), rt, time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, body, w.Body.String())
}

func TestRoundRobinAcrossInstances(t *testing.T) {
	disc := registry.Static{"game-service": {
		{ID: "g1", Address: "10.0.1.1", Port: 4003},
		{ID: "g2", Address: "10.0.1.2", Port: 4003},
		{ID: "g3", Address: "10.0.1.3", Port: 4003},
	}}
	rt := &recordingTransport{body: `{}`}
	r := newRouter(disc, rt, time.Second)

	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var hosts []string
	for _, req := range rt.requests {
		hosts = append(hosts, req.URL.Host)
	}
	assert.Equal(t, []string{"10.0.1.1:4003", "10.0.1.2:4003", "10.0.1.3:4003", "10.0.1.1:4003"}, hosts)
}

func TestForwardToLiveServer(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `","service":"` + r.Header.Get("X-Service-Id") + `"}`))
	}))
	defer downstream.Close()

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(downstream.URL, "http://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	disc := registry.Static{"game-service": {{ID: "game-live", Address: host, Port: port}}}
	r := newRouter(disc, nil, time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games/99", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"path":"/99","service":"game-live"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	r := newRouter(registry.Static{}, nil, time.Second)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "api-gateway", body["service"])
	assert.Equal(t, "1.0.0", body["version"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestDocs(t *testing.T) {
	r := newRouter(registry.Static{}, nil, time.Second)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Routes []Route `json:"routes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, DefaultRoutes(), body.Data.Routes)
}

func TestClientForwardedForIgnoredByDefault(t *testing.T) {
	rt := &recordingTransport{body: `{}`}
	r := newRouter(cartInstance(), rt, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.66")
	req.RemoteAddr = "203.0.113.9:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, rt.calls())
	assert.Equal(t, "203.0.113.9", rt.requests[0].Header.Get("X-Forwarded-For"))
}

func TestForwardedForFromTrustedProxy(t *testing.T) {
	rt := &recordingTransport{body: `{}`}
	g := New(Options{
		JWT:            testJWT,
		Discovery:      cartInstance(),
		Forwarder:      NewForwarder(time.Second, rt),
		TrustedProxies: []string{"10.0.0.0/8"},
	})
	r := gin.New()
	r.Use(middleware.ErrorHandler(true))
	g.Mount(r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.4")
	req.RemoteAddr = "10.1.1.1:8080"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "198.51.100.4", rt.requests[0].Header.Get("X-Forwarded-For"))
}

// switchableDiscovery serves a fixed instance set that can be emptied and restored.
type switchableDiscovery struct {
	mu        sync.Mutex
	instances []registry.Instance
	down      bool
}

func (d *switchableDiscovery) HealthyInstances(context.Context, string) ([]registry.Instance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.down {
		return nil, nil
	}
	return append([]registry.Instance(nil), d.instances...), nil
}

func (d *switchableDiscovery) setDown(down bool) {
	d.mu.Lock()
	d.down = down
	d.mu.Unlock()
}

func TestRotationRestartsAfterOutage(t *testing.T) {
	disc := &switchableDiscovery{instances: []registry.Instance{
		{ID: "g1", Address: "10.0.1.1", Port: 4003},
		{ID: "g2", Address: "10.0.1.2", Port: 4003},
		{ID: "g3", Address: "10.0.1.3", Port: 4003},
	}}
	rt := &recordingTransport{body: `{}`}
	r := newRouter(disc, rt, time.Second)

	get := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))
		return w.Code
	}

	require.Equal(t, http.StatusOK, get())
	require.Equal(t, http.StatusOK, get())

	disc.setDown(true)
	require.Equal(t, http.StatusServiceUnavailable, get())

	disc.setDown(false)
	require.Equal(t, http.StatusOK, get())

	var hosts []string
	for _, req := range rt.requests {
		hosts = append(hosts, req.URL.Host)
	}
	assert.Equal(t, []string{"10.0.1.1:4003", "10.0.1.2:4003", "10.0.1.1:4003"}, hosts)
}
