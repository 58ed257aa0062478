package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	settingsHandler *SettingsHandler,
	dispatchHandler *DispatchHandler,
	checkHandler *CheckHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	// Public
	r.POST("/login", authHandler.Login)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	admin := r.Group("/")
	admin.Use(AuthMiddleware(jwtSecret))
	{
		admin.GET("/settings", settingsHandler.Get)
		admin.PUT("/settings", settingsHandler.Update)
		admin.POST("/reset", settingsHandler.Reset)

		admin.POST("/send", dispatchHandler.SendNow)
		admin.GET("/dispatches", dispatchHandler.History)

		admin.GET("/check", checkHandler.Run)
		admin.GET("/history", checkHandler.History)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
