package service

import (
	"context"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/repository"
)

// TripService handles business logic for trips
type TripService struct {
	repo *repository.TripRepository
}

// NewTripService creates a new trip service
func NewTripService(repo *repository.TripRepository) *TripService {
	return &TripService{repo: repo}
}

// GetTrips retrieves a page of trips
func (s *TripService) GetTrips(ctx context.Context, filter models.TripFilter) (*models.TripsResponse, error) {
	if err := ValidateTripFilter(filter); err != nil {
		return nil, err
	}

	trips, err := s.repo.GetTrips(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.TripsResponse{
		Data:   trips,
		Count:  len(trips),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// GetTripByID retrieves a single trip by ID
func (s *TripService) GetTripByID(ctx context.Context, id string) (*models.TripDetail, error) {
	if id == "" {
		return nil, apperrors.Newf(apperrors.InvalidParameter, "get trip", "trip id is required")
	}
	return s.repo.GetTripByID(ctx, id)
}

// CountTrips returns the number of stored trips
func (s *TripService) CountTrips(ctx context.Context) (int64, error) {
	return s.repo.CountTrips(ctx)
}

// ValidateTripFilter checks the bounds that query binding cannot express
// on its own, so the service stays safe for callers other than the HTTP API
func ValidateTripFilter(f models.TripFilter) error {
	const op = "validate trip filter"

	if f.Limit < models.MinTripLimit || f.Limit > models.MaxTripLimit {
		return apperrors.Newf(apperrors.InvalidParameter, op,
			"limit must be between %d and %d, got %d", models.MinTripLimit, models.MaxTripLimit, f.Limit)
	}
	if f.Offset < 0 {
		return apperrors.Newf(apperrors.InvalidParameter, op, "offset must not be negative, got %d", f.Offset)
	}
	if f.TimeOfDay != "" && !contains(models.TimesOfDay, f.TimeOfDay) {
		return apperrors.Newf(apperrors.InvalidParameter, op, "unknown time_of_day %q", f.TimeOfDay)
	}
	if f.SpeedCategory != "" && !contains(models.SpeedCategories, f.SpeedCategory) {
		return apperrors.Newf(apperrors.InvalidParameter, op, "unknown speed_category %q", f.SpeedCategory)
	}
	if f.MinDistance != nil && *f.MinDistance < 0 {
		return apperrors.Newf(apperrors.InvalidParameter, op, "min_distance must not be negative")
	}
	if f.MaxDistance != nil && *f.MaxDistance < 0 {
		return apperrors.Newf(apperrors.InvalidParameter, op, "max_distance must not be negative")
	}
	if f.MinDistance != nil && f.MaxDistance != nil && *f.MinDistance > *f.MaxDistance {
		return apperrors.Newf(apperrors.InvalidParameter, op,
			"min_distance %g is greater than max_distance %g", *f.MinDistance, *f.MaxDistance)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
