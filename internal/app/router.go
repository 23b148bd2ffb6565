package app

import (
	"faqbot_backend/docs"
	"faqbot_backend/internal/config"
	"faqbot_backend/internal/middleware"
	"faqbot_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/statistics", c.stats.GetStatistics)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/chat", c.chat.GetChat)
		authGroup.POST("/chat", c.chat.PostMessage)
		authGroup.GET("/chat/history", c.chat.GetHistory)
		authGroup.POST("/logout", c.auth.Logout)
	}
}
