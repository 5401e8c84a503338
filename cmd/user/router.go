package main

import (
	"GameStore/internal/user"
	"GameStore/pkg/bootstrap"
	"GameStore/pkg/logger"
	"GameStore/pkg/middleware"
	"GameStore/pkg/monitor"

	"github.com/gin-gonic/gin"
)

// NewRouter creates a gin engine for the user service. Routes are served both at the
// root, as the gateway forwards them with the prefix stripped, and under the public
// /api/v1 prefixes for direct access.
func NewRouter(app *bootstrap.App) *gin.Engine {
	g := gin.New()
	g.Use(logger.GinLogger(), logger.GinRecovery(true),
		middleware.RequestID(app.IDs),
		middleware.CORS(app.Conf.CORSConfig.Origins),
		monitor.GinMetrics(app.Conf.Name),
		middleware.ErrorHandler(app.Conf.IsRelease()))

	g.GET("/health", app.Health)
	g.GET("/metrics", gin.WrapH(monitor.Handler()))

	h := user.NewHandler(user.NewService(user.NewRepository(app.DB), app.Cache, app.JWT, app.IDs, app.Conf.IsRelease()))

	user.RegisterAuthRoutes(g.Group("/api/v1/auth"), h, app.JWT)
	user.RegisterUserRoutes(g.Group("/api/v1/users"), h, app.JWT)

	// gateway view: /api/v1/auth/login arrives as /login, /api/v1/users/me as /me
	root := g.Group("/")
	user.RegisterAuthRoutes(root, h, app.JWT)
	user.RegisterUserRoutes(root, h, app.JWT)

	return g
}
