package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pixelsock/matrix-configurator-backend/config"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/controller"
	"github.com/pixelsock/matrix-configurator-backend/internal/middleware"
)

type Router struct {
	catalogController      *controller.CatalogController
	configuratorController *controller.ConfiguratorController
	wsController           *controller.WSController
	config                 *config.Config
}

func NewRouter(
	catalogController *controller.CatalogController,
	configuratorController *controller.ConfiguratorController,
	wsController *controller.WSController,
	cfg *config.Config,
) *Router {
	return &Router{
		catalogController:      catalogController,
		configuratorController: configuratorController,
		wsController:           wsController,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Matrix configurator API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		lines := v1.Group("/product-lines")
		{
			lines.GET("", r.catalogController.ListProductLines)
			lines.GET("/:slug/catalog", r.catalogController.GetCatalog)
			lines.GET("/:slug/catalog/export", r.catalogController.ExportCatalog)
			lines.POST("/:slug/sync", r.catalogController.SyncCatalog)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", r.configuratorController.CreateSession)
			sessions.GET("/:id", r.configuratorController.GetSession)
			sessions.PUT("/:id/fields", r.configuratorController.UpdateField)
			sessions.PUT("/:id/accessories", r.configuratorController.ToggleAccessory)
			sessions.PUT("/:id/quantity", r.configuratorController.SetQuantity)
			sessions.PUT("/:id/product-line", r.configuratorController.SwitchProductLine)
			sessions.GET("/:id/ws", r.wsController.Handle)
		}

		v1.POST("/sku/parse", r.configuratorController.ParseSKU)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
