package main

import (
	"GameStore/internal/game"
	"GameStore/pkg/bootstrap"
	"GameStore/pkg/logger"
	"GameStore/pkg/middleware"
	"GameStore/pkg/monitor"

	"github.com/gin-gonic/gin"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	g := gin.New()
	g.Use(logger.GinLogger(), logger.GinRecovery(true),
		middleware.RequestID(app.IDs),
		middleware.CORS(app.Conf.CORSConfig.Origins),
		monitor.GinMetrics(app.Conf.Name),
		middleware.ErrorHandler(app.Conf.IsRelease()))

	g.GET("/health", app.Health)
	g.GET("/metrics", gin.WrapH(monitor.Handler()))

	h := game.NewHandler(game.NewService(game.NewRepository(app.DB), app.Cache, app.IDs))
	game.RegisterRoutes(g.Group("/api/v1/games"), h, app.JWT)
	game.RegisterRoutes(g.Group("/"), h, app.JWT)

	return g
}
