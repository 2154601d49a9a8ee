package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/service"
	"github.com/urbanmobility/taxi-backend-go/pkg/response"
)

// TripHandler handles HTTP requests for trips
type TripHandler struct {
	service *service.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(service *service.TripService) *TripHandler {
	return &TripHandler{service: service}
}

// GetTrips handles GET /api/v1/trips
func (h *TripHandler) GetTrips(c *gin.Context) {
	var filter models.TripFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", apperrors.New(apperrors.InvalidParameter, "bind trip filter", err))
		return
	}

	trips, err := h.service.GetTrips(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, "Failed to get trips", err)
		return
	}

	response.Success(c, trips)
}

// GetTripByID handles GET /api/v1/trips/:id
func (h *TripHandler) GetTripByID(c *gin.Context) {
	trip, err := h.service.GetTripByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if apperrors.KindOf(err) == apperrors.NotFound {
			response.NotFound(c, "Trip not found", err)
			return
		}
		response.FromError(c, "Failed to get trip", err)
		return
	}

	response.Success(c, trip)
}
