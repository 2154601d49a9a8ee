package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urbanmobility/taxi-backend-go/internal/service"
)

// APIName and APIVersion are reported by the root endpoint
const (
	APIName    = "NYC Taxi Trip Data API"
	APIVersion = "v1"
)

// Endpoints maps endpoint names to their routes
var Endpoints = map[string]string{
	"trips":              "/api/v1/trips",
	"trip_detail":        "/api/v1/trips/{trip_id}",
	"statistics":         "/api/v1/stats",
	"time_patterns":      "/api/v1/patterns/time",
	"speed_distribution": "/api/v1/patterns/speed",
	"location_heatmap":   "/api/v1/patterns/locations",
	"cleaning_audit":     "/api/v1/audit",
}

// HealthHandler serves the root and health endpoints
type HealthHandler struct {
	tripService *service.TripService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(tripService *service.TripService) *HealthHandler {
	return &HealthHandler{tripService: tripService}
}

// Root handles GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   APIName,
		"version":   APIVersion,
		"endpoints": Endpoints,
	})
}

// Health handles GET /health. The store is probed with a row count.
func (h *HealthHandler) Health(c *gin.Context) {
	count, err := h.tripService.CountTrips(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"database":    "connected",
		"total_trips": count,
	})
}
