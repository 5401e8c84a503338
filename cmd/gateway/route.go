package main

import (
	"time"

	"GameStore/internal/gateway"
	"GameStore/pkg/bootstrap"
	"GameStore/pkg/logger"
	"GameStore/pkg/middleware"
	"GameStore/pkg/monitor"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func InitRouter(app *bootstrap.App) *gin.Engine {
	routes := gateway.DefaultRoutes()
	timeout := gateway.DefaultTimeout
	segmentMatch := false
	var trusted []string
	if gc := app.Conf.GatewayConfig; gc != nil {
		if len(gc.Routes) > 0 {
			routes = gateway.RoutesFromConfig(gc.Routes)
		}
		if gc.TimeoutMS > 0 {
			timeout = time.Duration(gc.TimeoutMS) * time.Millisecond
		}
		segmentMatch = gc.SegmentMatch
		trusted = gc.TrustedProxies
	}
	for _, rt := range routes {
		zap.L().Info("route", zap.String("prefix", rt.Prefix), zap.String("service", rt.Service), zap.Bool("auth", rt.RequiresAuth))
	}

	gw := gateway.New(gateway.Options{
		Name:      app.Conf.Name,
		Version:   app.Conf.Version,
		Routes:    gateway.NewRouteTable(routes, segmentMatch),
		JWT:       app.JWT,
		Discovery: app.Discovery(),
		Forwarder: gateway.NewForwarder(timeout, nil),

		TrustedProxies: trusted,
	})

	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery(true),
		middleware.RequestID(app.IDs),
		middleware.CORS(app.Conf.CORSConfig.Origins),
		monitor.GinMetrics(app.Conf.Name),
		middleware.ErrorHandler(app.Conf.IsRelease()))
	// metrics endpoint for Prometheus
	r.GET("/metrics", gin.WrapH(monitor.Handler()))
	gw.Mount(r)
	return r
}
