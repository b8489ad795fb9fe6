package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handlers *APIHandlers, logger *logrus.Logger) {
	// Global middleware
	router.Use(Recovery(logger))
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(ErrorHandler())
	router.Use(CORS())

	// Health check (public)
	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")

	types := v1.Group("/device-types")
	{
		types.GET("", handlers.ListDeviceTypes)
		types.GET("/:type", handlers.GetDeviceType)

		devices := types.Group("/:type/devices")
		{
			devices.GET("", handlers.ListDevices)
			devices.POST("", handlers.EnrollDevice)
			devices.GET("/:id", handlers.GetDevice)
			devices.GET("/:id/enrolled", handlers.IsEnrolled)
			devices.POST("/:id/operations", handlers.SendOperation)
		}
	}
}
