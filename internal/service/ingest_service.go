package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/urbanmobility/taxi-backend-go/internal/cleaning"
	"github.com/urbanmobility/taxi-backend-go/internal/dataset"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/repository"
	"github.com/urbanmobility/taxi-backend-go/internal/stats"
)

// IngestPaths names the files of one ingest run
type IngestPaths struct {
	Raw     string
	Cleaned string
	Log     string
}

// CleanReport is the final summary of a cleaning run
type CleanReport struct {
	RunID               string  `json:"run_id" yaml:"run_id"`
	Policy              string  `json:"policy" yaml:"policy"`
	RowsIn              int     `json:"rows_in" yaml:"rows_in"`
	RowsOut             int     `json:"rows_out" yaml:"rows_out"`
	Removed             int     `json:"removed" yaml:"removed"`
	RetentionRate       float64 `json:"retention_rate" yaml:"retention_rate"` // Percent
	MeanDurationSeconds float64 `json:"mean_duration_seconds" yaml:"mean_duration_seconds"`
	MeanDurationMinutes float64 `json:"mean_duration_minutes" yaml:"mean_duration_minutes"`
	MeanDistance        float64 `json:"mean_distance" yaml:"mean_distance"`
	MeanSpeed           float64 `json:"mean_speed" yaml:"mean_speed"`
	MeanPassengers      float64 `json:"mean_passengers" yaml:"mean_passengers"`
	Loaded              int     `json:"loaded,omitempty" yaml:"loaded,omitempty"`
}

// IngestService runs the offline batch: read, clean, write and load
type IngestService struct {
	pipeline *cleaning.Pipeline
	loader   *repository.TripLoader
	logger   *zap.Logger
}

// NewIngestService creates an ingest service. loader may be nil when only
// the file-to-file cleaning step is used.
func NewIngestService(pipeline *cleaning.Pipeline, loader *repository.TripLoader, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		pipeline: pipeline,
		loader:   loader,
		logger:   logger.Named("ingest"),
	}
}

// Clean reads the raw feed, cleans it and writes the cleaned file and the
// audit log file. Either output path may be empty to skip that file.
func (s *IngestService) Clean(paths IngestPaths) (*cleaning.Result, *CleanReport, error) {
	raw, err := dataset.ReadRawFile(paths.Raw)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Read raw feed", zap.String("path", paths.Raw), zap.Int("rows", len(raw)))

	result := s.pipeline.Run(raw)
	report := Summarize(result, s.pipeline.Policy().Name)

	if paths.Cleaned != "" {
		if err := dataset.WriteCleanFile(paths.Cleaned, result.Records); err != nil {
			return nil, nil, err
		}
		s.logger.Info("Wrote cleaned file", zap.String("path", paths.Cleaned), zap.Int("rows", len(result.Records)))
	}
	if paths.Log != "" {
		if err := dataset.WriteAuditLogFile(paths.Log, result.Audit); err != nil {
			return nil, nil, err
		}
		s.logger.Info("Wrote cleaning log", zap.String("path", paths.Log))
	}

	return &result, report, nil
}

// Load replaces the stored trips with records and, when audit is set,
// persists its entries next to earlier runs in the same transaction
func (s *IngestService) Load(ctx context.Context, records []models.CleanTripRecord, audit *models.AuditLog) error {
	return s.loader.LoadRun(ctx, records, audit)
}

// LoadFile loads a previously written cleaned file and returns the row count
func (s *IngestService) LoadFile(ctx context.Context, cleanedPath string) (int, error) {
	records, err := dataset.ReadCleanFile(cleanedPath)
	if err != nil {
		return 0, err
	}
	if err := s.Load(ctx, records, nil); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Run cleans the raw feed, writes both output files and loads the store
func (s *IngestService) Run(ctx context.Context, paths IngestPaths) (*CleanReport, error) {
	result, report, err := s.Clean(paths)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx, result.Records, &result.Audit); err != nil {
		return nil, err
	}
	report.Loaded = len(result.Records)

	s.logger.Info("Ingest finished",
		zap.String("run_id", report.RunID),
		zap.Int("rows_in", report.RowsIn),
		zap.Int("loaded", report.Loaded),
		zap.Float64("retention_rate", report.RetentionRate),
	)
	return report, nil
}

// Summarize computes the final summary of a cleaning result
func Summarize(result cleaning.Result, policy string) *CleanReport {
	report := &CleanReport{
		RunID:   result.Audit.RunID,
		Policy:  policy,
		RowsOut: len(result.Records),
	}
	if summary, ok := result.Audit.Summary(); ok {
		report.RowsIn = summary.RowsIn
	}
	report.Removed = report.RowsIn - report.RowsOut
	if report.RowsIn > 0 {
		report.RetentionRate = float64(report.RowsOut) / float64(report.RowsIn) * 100
	}

	n := len(result.Records)
	durations := make([]float64, 0, n)
	distances := make([]float64, 0, n)
	speeds := make([]float64, 0, n)
	passengers := make([]float64, 0, n)
	for _, r := range result.Records {
		durations = append(durations, float64(r.TripDuration))
		distances = append(distances, r.TripDistanceMiles)
		speeds = append(speeds, r.AvgSpeedMph)
		passengers = append(passengers, float64(r.PassengerCount))
	}

	report.MeanDurationSeconds = stats.Mean(durations)
	report.MeanDurationMinutes = report.MeanDurationSeconds / 60
	report.MeanDistance = stats.Mean(distances)
	report.MeanSpeed = stats.Mean(speeds)
	report.MeanPassengers = stats.Mean(passengers)

	return report
}
