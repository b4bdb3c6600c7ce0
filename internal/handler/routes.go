package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// Register mounts the API routes. scanGuard runs in front of the scan
// endpoint only (rate limiting); it may be nil.
func (h *Handler) Register(r gin.IRouter, scanGuard gin.HandlerFunc) {
	// Health check endpoints (outside /api group, no rate limiting)
	r.GET("/health", h.HandleHealth)
	r.GET("/ready", h.HandleReadiness)

	scan := []gin.HandlerFunc{h.HandleProcessImage}
	if scanGuard != nil {
		scan = append([]gin.HandlerFunc{scanGuard}, scan...)
	}

	api := r.Group("/api")
	{
		api.POST("/process-image", scan...)
		api.GET("/logging/level", h.HandleGetLogLevel)
		api.POST("/logging/level", h.HandleSetLogLevel)
	}
}

// ServeSPA serves the built frontend from dir, falling back to index.html
// for client-side routes. Unknown /api paths stay JSON 404s.
func ServeSPA(r *gin.Engine, dir string) {
	r.Static("/assets", filepath.Join(dir, "assets"))

	index := filepath.Join(dir, "index.html")
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(index)
	})
}
