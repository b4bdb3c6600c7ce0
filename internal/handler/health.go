package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Scanner   string `json:"scanner"`
}

// HandleHealth returns the health status of the service
// Used for Cloud Run liveness probe
func (h *Handler) HandleHealth(c *gin.Context) {
	scannerStatus := "unavailable"
	if h.currentScanner() != nil {
		scannerStatus = "ready"
	}

	status := "healthy"
	if scannerStatus == "unavailable" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Scanner:   scannerStatus,
	})
}

// HandleReadiness returns whether the service is ready to accept traffic
// Used for Cloud Run startup probe - stricter than health
func (h *Handler) HandleReadiness(c *gin.Context) {
	if h.currentScanner() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "scanner_not_initialized",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
