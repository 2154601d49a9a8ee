package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/service"
	"github.com/urbanmobility/taxi-backend-go/pkg/response"
)

// StatsHandler handles HTTP requests for statistics and patterns
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetStatistics handles GET /api/v1/stats
func (h *StatsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statsService.GetStatistics(c.Request.Context())
	if err != nil {
		response.FromError(c, "Failed to get statistics", err)
		return
	}

	response.Success(c, stats)
}

// GetTimePatterns handles GET /api/v1/patterns/time
func (h *StatsHandler) GetTimePatterns(c *gin.Context) {
	patterns, err := h.statsService.GetTimePatterns(c.Request.Context())
	if err != nil {
		response.FromError(c, "Failed to get time patterns", err)
		return
	}

	response.Success(c, patterns)
}

// GetSpeedPatterns handles GET /api/v1/patterns/speed
func (h *StatsHandler) GetSpeedPatterns(c *gin.Context) {
	patterns, err := h.statsService.GetSpeedPatterns(c.Request.Context())
	if err != nil {
		response.FromError(c, "Failed to get speed patterns", err)
		return
	}

	response.Success(c, patterns)
}

// GetLocationPatterns handles GET /api/v1/patterns/locations
func (h *StatsHandler) GetLocationPatterns(c *gin.Context) {
	var filter models.LocationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", apperrors.New(apperrors.InvalidParameter, "bind location filter", err))
		return
	}

	patterns, err := h.statsService.GetLocationPatterns(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, "Failed to get location patterns", err)
		return
	}

	response.Success(c, patterns)
}

// GetLatestAudit handles GET /api/v1/audit
func (h *StatsHandler) GetLatestAudit(c *gin.Context) {
	audit, err := h.statsService.GetLatestAudit(c.Request.Context())
	if err != nil {
		response.FromError(c, "Failed to get cleaning audit", err)
		return
	}

	response.Success(c, audit)
}
