package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/database"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

// DefaultBatchSize is the number of trips written between progress reports
const DefaultBatchSize = 10000

const (
	insertTripSQL = `INSERT INTO trips (
		id, vendor_id, pickup_datetime, dropoff_datetime, passenger_count,
		pickup_longitude, pickup_latitude, dropoff_longitude, dropoff_latitude,
		store_and_fwd_flag, trip_duration, trip_duration_minutes,
		trip_distance_miles, avg_speed_mph
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertTemporalSQL = `INSERT INTO trip_temporal (
		trip_id, pickup_hour, pickup_day_of_week, pickup_day_name,
		pickup_month, is_weekend, time_of_day, is_rush_hour
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertCategorySQL = `INSERT INTO trip_categories (trip_id, speed_category) VALUES (?, ?)`
)

// TripLoader bulk-loads cleaned trips into the three trip tables
type TripLoader struct {
	db        *database.DB
	batchSize int
	logger    *zap.Logger
}

// NewTripLoader creates a loader. A non-positive batch size uses the default.
func NewTripLoader(db *database.DB, batchSize int, logger *zap.Logger) *TripLoader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripLoader{db: db, batchSize: batchSize, logger: logger.Named("loader")}
}

// Load replaces the trip tables with records inside a single transaction.
// Any failure, including a duplicate trip id, rolls the whole load back and
// leaves the previous contents in place.
func (l *TripLoader) Load(ctx context.Context, records []models.CleanTripRecord) error {
	return l.LoadRun(ctx, records, nil)
}

// LoadRun is Load that also stores the audit log of the run that produced
// records. Trips and audit entries commit together or not at all.
func (l *TripLoader) LoadRun(ctx context.Context, records []models.CleanTripRecord, audit *models.AuditLog) error {
	err := l.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := database.ResetSchema(ctx, tx); err != nil {
			return err
		}
		if err := l.insert(ctx, tx, records); err != nil {
			return err
		}
		if audit == nil {
			return nil
		}
		return insertAuditLog(ctx, tx, l.db, *audit)
	})
	if err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "load trips", err)
	}

	l.logger.Info("Trips loaded", zap.Int("rows", len(records)))
	return nil
}

func (l *TripLoader) insert(ctx context.Context, tx *sql.Tx, records []models.CleanTripRecord) error {
	tripStmt, err := tx.PrepareContext(ctx, l.db.Rebind(insertTripSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare trip insert: %w", err)
	}
	defer tripStmt.Close()

	temporalStmt, err := tx.PrepareContext(ctx, l.db.Rebind(insertTemporalSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare temporal insert: %w", err)
	}
	defer temporalStmt.Close()

	categoryStmt, err := tx.PrepareContext(ctx, l.db.Rebind(insertCategorySQL))
	if err != nil {
		return fmt.Errorf("failed to prepare category insert: %w", err)
	}
	defer categoryStmt.Close()

	for start := 0; start < len(records); start += l.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + l.batchSize
		if end > len(records) {
			end = len(records)
		}

		for _, r := range records[start:end] {
			if _, err := tripStmt.ExecContext(ctx,
				r.ID, r.VendorID,
				r.PickupDatetime.Format(models.DateTimeLayout),
				r.DropoffDatetime.Format(models.DateTimeLayout),
				r.PassengerCount,
				r.PickupLongitude, r.PickupLatitude, r.DropoffLongitude, r.DropoffLatitude,
				r.StoreAndFwdFlag, r.TripDuration, r.TripDurationMinutes,
				r.TripDistanceMiles, r.AvgSpeedMph,
			); err != nil {
				return fmt.Errorf("failed to insert trip %q: %w", r.ID, err)
			}

			if _, err := temporalStmt.ExecContext(ctx,
				r.ID, r.PickupHour, r.PickupDayOfWeek, r.PickupDayName,
				r.PickupMonth, boolToInt(r.IsWeekend), r.TimeOfDay, boolToInt(r.IsRushHour),
			); err != nil {
				return fmt.Errorf("failed to insert temporal features of %q: %w", r.ID, err)
			}

			if _, err := categoryStmt.ExecContext(ctx, r.ID, r.SpeedCategory); err != nil {
				return fmt.Errorf("failed to insert category of %q: %w", r.ID, err)
			}
		}

		l.logger.Info("Inserted batch",
			zap.Int("rows", end),
			zap.Int("total", len(records)),
		)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
