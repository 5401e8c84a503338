package gateway

import (
	"strings"

	"GameStore/pkg/config"
)

// Route maps a path prefix to the logical service that serves it.
type Route struct {
	Prefix       string `json:"pathPrefix"`
	Service      string `json:"serviceName"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// DefaultRoutes is used when the configuration lists no routes.
func DefaultRoutes() []Route {
	return []Route{
		{Prefix: "/api/v1/auth", Service: "user-service"},
		{Prefix: "/api/v1/users", Service: "user-service", RequiresAuth: true},
		{Prefix: "/api/v1/cart", Service: "cart-service", RequiresAuth: true},
		{Prefix: "/api/v1/games", Service: "game-service"},
	}
}

func RoutesFromConfig(cfg []config.RouteConfig) []Route {
	if len(cfg) == 0 {
		return DefaultRoutes()
	}
	routes := make([]Route, 0, len(cfg))
	for _, rc := range cfg {
		routes = append(routes, Route{Prefix: rc.Prefix, Service: rc.Service, RequiresAuth: rc.RequiresAuth})
	}
	return routes
}

// RouteTable is an ordered route list; the first matching prefix wins and overlap is
// not checked, so specific prefixes must come before general ones.
type RouteTable struct {
	routes       []Route
	segmentMatch bool
}

// NewRouteTable copies routes. With segmentMatch a prefix only matches whole path
// segments, so /api/v1/user no longer matches /api/v1/users.
func NewRouteTable(routes []Route, segmentMatch bool) *RouteTable {
	return &RouteTable{routes: append([]Route(nil), routes...), segmentMatch: segmentMatch}
}

// Resolve returns the matching route and the path with its prefix removed once.
// An empty remainder becomes "/".
func (t *RouteTable) Resolve(path string) (Route, string, bool) {
	for _, r := range t.routes {
		if !strings.HasPrefix(path, r.Prefix) {
			continue
		}
		rest := path[len(r.Prefix):]
		if t.segmentMatch && rest != "" && rest[0] != '/' && !strings.HasSuffix(r.Prefix, "/") {
			continue
		}
		if rest == "" {
			rest = "/"
		} else if rest[0] != '/' {
			rest = "/" + rest
		}
		return r, rest, true
	}
	return Route{}, "", false
}

func (t *RouteTable) Routes() []Route {
	return append([]Route(nil), t.routes...)
}
