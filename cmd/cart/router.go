package main

import (
	"GameStore/internal/cart"
	"GameStore/pkg/balancer"
	"GameStore/pkg/bootstrap"
	"GameStore/pkg/logger"
	"GameStore/pkg/middleware"
	"GameStore/pkg/monitor"

	"github.com/gin-gonic/gin"
)

// NewRouter creates a gin engine for the cart service. Games are looked up on the
// game-service instances the registry reports healthy.
func NewRouter(app *bootstrap.App) *gin.Engine {
	g := gin.New()
	g.Use(logger.GinLogger(), logger.GinRecovery(true),
		middleware.RequestID(app.IDs),
		middleware.CORS(app.Conf.CORSConfig.Origins),
		monitor.GinMetrics(app.Conf.Name),
		middleware.ErrorHandler(app.Conf.IsRelease()))

	g.GET("/health", app.Health)
	g.GET("/metrics", gin.WrapH(monitor.Handler()))

	gameService := "game-service"
	if app.Conf.ServicesConfig != nil && app.Conf.ServicesConfig.Game != "" {
		gameService = app.Conf.ServicesConfig.Game
	}
	games := cart.NewGameClient(gameService, app.Discovery(), balancer.NewRoundRobin(), 0)
	h := cart.NewHandler(cart.NewService(cart.NewRepository(app.DB), games, app.IDs))

	cart.RegisterRoutes(g.Group("/api/v1/cart"), h, app.JWT)
	cart.RegisterRoutes(g.Group("/"), h, app.JWT)

	return g
}
