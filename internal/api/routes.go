package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/linkpulse/internal/telemetry"
)

// SetupRoutes configures all API routes.
func SetupRoutes(
	router *gin.Engine,
	classifyHandler *ClassifyHandler,
	trendsHandler *TrendsHandler,
	linkStatsHandler *LinkStatsHandler,
	serviceName string,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})
	router.GET("/metrics", gin.WrapH(telemetry.Handler()))

	v1 := router.Group("/api/v1")
	v1.POST("/classify/run", classifyHandler.HandleRun)
	v1.POST("/trends/run", trendsHandler.HandleRun)
	v1.GET("/trends/latest", trendsHandler.HandleLatest)
	v1.GET("/links/:shortId/stats", linkStatsHandler.HandleStats)
}
