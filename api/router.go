package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", healthCheck)
		apiGroup.POST("/search", h.searchHandler)
		apiGroup.POST("/download-csv", h.downloadCSVHandler)
		apiGroup.GET("/runs", ClientKeyMiddleware(h.Engine.Policy), h.runsHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		h.logger().Warn("[API] 404", zapPath(c))
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
