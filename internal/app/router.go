package app

import (
	"cuerpofit_backend/docs"
	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/internal/middleware"
	"cuerpofit_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/countries", c.country.List)
		api.GET("/calling-codes", c.country.CallingCodes)

		sessions := api.Group("/intake/sessions")
		{
			sessions.POST("", c.intake.CreateSession)
			sessions.GET("/:id", c.intake.GetSession)
			sessions.POST("/:id/start", c.intake.Start)
			sessions.POST("/:id/next", c.intake.Next)
			sessions.POST("/:id/previous", c.intake.Previous)
			sessions.POST("/:id/answers/select", c.intake.SelectAnswer)
			sessions.POST("/:id/answers/toggle", c.intake.ToggleAnswer)
			sessions.POST("/:id/answers/text", c.intake.EditText)
			sessions.DELETE("/:id/answers/:questionId", c.intake.RemoveAnswer)

			sessions.POST("/:id/video", c.video.Upload)
			sessions.GET("/:id/video/status", c.video.Status)
			sessions.POST("/:id/video/cancel", c.video.Cancel)

			// Development shortcut; unreachable in release mode.
			if cfg.Server.Mode != "release" {
				sessions.POST("/:id/autofill", c.intake.Autofill)
			}
		}
	}

	admin := router.Group("/api/admin")
	{
		admin.POST("/login", c.admin.Login)

		authorized := admin.Group("/")
		authorized.Use(middleware.AuthMiddleware(cfg))
		{
			authorized.GET("/applications", c.admin.ListApplications)
			authorized.GET("/applications/:id", c.admin.GetApplication)
		}
	}
}
