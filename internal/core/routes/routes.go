package routes

import (
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/core/container"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/middleware"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the engine with the global middleware chain in place.
func NewRouter(c *container.Container, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(logger),
		middleware.RecoveryMiddleware(logger),
		cors.New(corsConfig(c.Config.CORSOrigins)),
		middleware.TimeoutMiddleware(c.Config.RequestTimeout),
	)

	RegisterUtilityRoutes(router, c)
	api := router.Group("/api")
	RegisterPublicRoutes(api, c)
	RegisterProtectedRoutes(api, c)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func RegisterPublicRoutes(router *gin.RouterGroup, c *container.Container) {
	c.LoginHandler.RegisterRoutes(router)
}

func RegisterProtectedRoutes(router *gin.RouterGroup, c *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())

	c.PartHandler.RegisterRoutes(protectedRoutes)
	c.IssuanceHandler.RegisterRoutes(protectedRoutes)
	c.DeliveryHandler.RegisterRoutes(protectedRoutes)
	c.ToolHandler.RegisterRoutes(protectedRoutes)
	c.LocationHandler.RegisterRoutes(protectedRoutes)
	c.DirectoryHandler.RegisterRoutes(protectedRoutes)
	c.UserHandler.RegisterRoutes(protectedRoutes)
	c.ReportHandler.RegisterRoutes(protectedRoutes)
	c.AuditLogHandler.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine, c *container.Container) {
	router.GET("/health", c.Health.Handler())
}
