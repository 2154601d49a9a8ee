package service

import (
	"context"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/repository"
)

// StatsService handles business logic for aggregate statistics
type StatsService struct {
	repo      *repository.StatsRepository
	auditRepo *repository.AuditRepository
}

// NewStatsService creates a new stats service
func NewStatsService(repo *repository.StatsRepository, auditRepo *repository.AuditRepository) *StatsService {
	return &StatsService{repo: repo, auditRepo: auditRepo}
}

// GetStatistics retrieves dataset-wide statistics
func (s *StatsService) GetStatistics(ctx context.Context) (*models.TripStatistics, error) {
	return s.repo.GetStatistics(ctx)
}

// GetTimePatterns retrieves time-based aggregates
func (s *StatsService) GetTimePatterns(ctx context.Context) (*models.TimePatterns, error) {
	return s.repo.GetTimePatterns(ctx)
}

// GetSpeedPatterns retrieves speed aggregates
func (s *StatsService) GetSpeedPatterns(ctx context.Context) (*models.SpeedPatterns, error) {
	return s.repo.GetSpeedPatterns(ctx)
}

// GetLocationPatterns retrieves heatmap points
func (s *StatsService) GetLocationPatterns(ctx context.Context, filter models.LocationFilter) (*models.LocationPatterns, error) {
	const op = "validate location filter"
	if filter.Limit < models.MinLocationLimit || filter.Limit > models.MaxLocationLimit {
		return nil, apperrors.Newf(apperrors.InvalidParameter, op,
			"limit must be between %d and %d, got %d", models.MinLocationLimit, models.MaxLocationLimit, filter.Limit)
	}
	if filter.CellLevel < 0 || filter.CellLevel > models.MaxCellLevel {
		return nil, apperrors.Newf(apperrors.InvalidParameter, op,
			"cell_level must be between 0 and %d, got %d", models.MaxCellLevel, filter.CellLevel)
	}
	return s.repo.GetLocationPatterns(ctx, filter)
}

// GetLatestAudit retrieves the audit log of the most recent cleaning run
func (s *StatsService) GetLatestAudit(ctx context.Context) (*models.AuditLog, error) {
	return s.auditRepo.GetLatestAuditLog(ctx)
}
