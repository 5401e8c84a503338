// Package gateway resolves, authenticates, balances and forwards requests to the
// storefront services.
package gateway

import (
	"net/http"
	"time"

	"GameStore/pkg/apperr"
	"GameStore/pkg/balancer"
	"GameStore/pkg/monitor"
	"GameStore/pkg/registry"
	"GameStore/pkg/response"
	"GameStore/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Name      string
	Version   string
	Routes    *RouteTable
	JWT       *utils.JWT
	Discovery registry.Discovery
	Balancer  *balancer.RoundRobin
	Forwarder *Forwarder
	// TrustedProxies lists the proxies whose X-Forwarded-For is believed; empty trusts none.
	TrustedProxies []string
}

type Gateway struct {
	name      string
	version   string
	routes    *RouteTable
	auth      *AuthGate
	discovery registry.Discovery
	balancer  *balancer.RoundRobin
	forwarder *Forwarder
	trusted   []string
}

func New(opts Options) *Gateway {
	g := &Gateway{
		name:      opts.Name,
		version:   opts.Version,
		routes:    opts.Routes,
		auth:      NewAuthGate(opts.JWT),
		discovery: opts.Discovery,
		balancer:  opts.Balancer,
		forwarder: opts.Forwarder,
		trusted:   opts.TrustedProxies,
	}
	if g.name == "" {
		g.name = "api-gateway"
	}
	if g.routes == nil {
		g.routes = NewRouteTable(DefaultRoutes(), false)
	}
	if g.balancer == nil {
		g.balancer = balancer.NewRoundRobin()
	}
	if g.forwarder == nil {
		g.forwarder = NewForwarder(DefaultTimeout, nil)
	}
	return g
}

// Proxy handles every request that no local route claimed.
func (g *Gateway) Proxy(c *gin.Context) {
	route, rest, ok := g.routes.Resolve(c.Request.URL.Path)
	if !ok {
		_ = c.Error(apperr.NotFound("", "Route not found"))
		return
	}

	if route.RequiresAuth {
		if _, err := g.auth.Check(c.GetHeader("Authorization")); err != nil {
			_ = c.Error(err)
			return
		}
	}

	instances, err := g.discovery.HealthyInstances(c.Request.Context(), route.Service)
	if err != nil {
		zap.L().Error("service lookup failed", zap.String("service", route.Service), zap.Error(err))
		instances = nil
	}
	inst, ok := g.balancer.Pick(route.Service, instances)
	if !ok {
		// rotation restarts from the first instance once the service is back
		g.balancer.Reset(route.Service)
		monitor.ObserveUpstream(route.Service, "unavailable", 0)
		_ = c.Error(apperr.ServiceUnavailable("", route.Service+" is not available").Wrap(registry.ErrNoInstances))
		return
	}

	start := time.Now()
	err = g.forwarder.Forward(c.Writer, c.Request, Outbound{
		Instance: inst,
		Path:     rest,
		ClientIP: c.ClientIP(),
	})
	elapsed := time.Since(start)
	switch {
	case err == nil:
		monitor.ObserveUpstream(route.Service, "ok", elapsed)
	case apperr.Is(err, apperr.KindGatewayTimeout):
		monitor.ObserveUpstream(route.Service, "timeout", elapsed)
		zap.L().Warn("upstream timeout", zap.String("service", route.Service), zap.String("instance", inst.ID))
		_ = c.Error(err)
	default:
		monitor.ObserveUpstream(route.Service, "error", elapsed)
		_ = c.Error(err)
	}
}

func (g *Gateway) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "API Gateway is healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   g.name,
		"version":   g.version,
	})
}

func (g *Gateway) Docs(c *gin.Context) {
	response.ReplySuccessWithData(c, "API Gateway documentation", gin.H{
		"routes": g.routes.Routes(),
	})
}

// Mount installs /health, /docs and the proxy fallback on r. It also restricts r to the
// configured trusted proxies so the client IP sent upstream cannot be spoofed.
func (g *Gateway) Mount(r *gin.Engine) {
	if err := r.SetTrustedProxies(g.trusted); err != nil {
		zap.L().Error("invalid trusted proxies, trusting none", zap.Strings("proxies", g.trusted), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.GET("/health", g.Health)
	r.GET("/docs", g.Docs)
	r.NoRoute(g.Proxy)
}
