package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
)

// Execer runs statements on the pool or inside a transaction
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Table names
const (
	TableTrips          = "trips"
	TableTripTemporal   = "trip_temporal"
	TableTripCategories = "trip_categories"
	TableCleaningAudit  = "cleaning_audit"
)

var tableStatements = []string{
	`CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		vendor_id INTEGER,
		pickup_datetime TEXT NOT NULL,
		dropoff_datetime TEXT NOT NULL,
		passenger_count INTEGER NOT NULL,
		pickup_longitude DOUBLE PRECISION NOT NULL,
		pickup_latitude DOUBLE PRECISION NOT NULL,
		dropoff_longitude DOUBLE PRECISION NOT NULL,
		dropoff_latitude DOUBLE PRECISION NOT NULL,
		store_and_fwd_flag TEXT,
		trip_duration INTEGER NOT NULL,
		trip_duration_minutes DOUBLE PRECISION NOT NULL,
		trip_distance_miles DOUBLE PRECISION NOT NULL,
		avg_speed_mph DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trip_temporal (
		trip_id TEXT PRIMARY KEY REFERENCES trips(id) ON DELETE CASCADE,
		pickup_hour INTEGER NOT NULL,
		pickup_day_of_week INTEGER NOT NULL,
		pickup_day_name TEXT NOT NULL,
		pickup_month INTEGER NOT NULL,
		is_weekend INTEGER NOT NULL,
		time_of_day TEXT NOT NULL,
		is_rush_hour INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trip_categories (
		trip_id TEXT PRIMARY KEY REFERENCES trips(id) ON DELETE CASCADE,
		speed_category TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cleaning_audit (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		stage TEXT NOT NULL,
		rule TEXT NOT NULL,
		rows_removed INTEGER NOT NULL,
		lower_bound DOUBLE PRECISION,
		upper_bound DOUBLE PRECISION,
		rows_in INTEGER NOT NULL,
		rows_out INTEGER NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
}

// IndexStatements lists every secondary index, grouped by table
var IndexStatements = []string{
	// trips
	"CREATE INDEX IF NOT EXISTS idx_trips_pickup_datetime ON trips(pickup_datetime)",
	"CREATE INDEX IF NOT EXISTS idx_trips_vendor_id ON trips(vendor_id)",
	"CREATE INDEX IF NOT EXISTS idx_trips_passenger_count ON trips(passenger_count)",
	"CREATE INDEX IF NOT EXISTS idx_trips_pickup_coords ON trips(pickup_latitude, pickup_longitude)",
	"CREATE INDEX IF NOT EXISTS idx_trips_dropoff_coords ON trips(dropoff_latitude, dropoff_longitude)",
	"CREATE INDEX IF NOT EXISTS idx_trips_duration ON trips(trip_duration)",
	"CREATE INDEX IF NOT EXISTS idx_trips_distance ON trips(trip_distance_miles)",
	"CREATE INDEX IF NOT EXISTS idx_trips_speed ON trips(avg_speed_mph)",

	// trip_temporal
	"CREATE INDEX IF NOT EXISTS idx_temporal_hour ON trip_temporal(pickup_hour)",
	"CREATE INDEX IF NOT EXISTS idx_temporal_day_of_week ON trip_temporal(pickup_day_of_week)",
	"CREATE INDEX IF NOT EXISTS idx_temporal_month ON trip_temporal(pickup_month)",
	"CREATE INDEX IF NOT EXISTS idx_temporal_is_weekend ON trip_temporal(is_weekend)",
	"CREATE INDEX IF NOT EXISTS idx_temporal_time_of_day ON trip_temporal(time_of_day)",
	"CREATE INDEX IF NOT EXISTS idx_temporal_is_rush_hour ON trip_temporal(is_rush_hour)",

	// trip_categories
	"CREATE INDEX IF NOT EXISTS idx_categories_speed ON trip_categories(speed_category)",

	"CREATE INDEX IF NOT EXISTS idx_cleaning_audit_started_at ON cleaning_audit(started_at)",
}

// dropStatements removes the trip tables, children first. The audit table
// keeps the history of earlier runs.
var dropStatements = []string{
	"DROP TABLE IF EXISTS trip_categories",
	"DROP TABLE IF EXISTS trip_temporal",
	"DROP TABLE IF EXISTS trips",
}

// EnsureSchema creates any missing table and index
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range append(append([]string{}, tableStatements...), IndexStatements...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return apperrors.New(apperrors.PersistenceFailure, "create schema", fmt.Errorf("%s: %w", firstLine(stmt), err))
		}
	}
	return nil
}

// ResetSchema drops the trip tables and recreates the full schema.
// Loading is a full reload; there is no incremental migration. Run it on a
// transaction to make the reset part of the load.
func ResetSchema(ctx context.Context, db Execer) error {
	for _, stmt := range dropStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return apperrors.New(apperrors.PersistenceFailure, "drop schema", fmt.Errorf("%s: %w", stmt, err))
		}
	}
	return EnsureSchema(ctx, db)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' || r == '(' {
			return s[:i]
		}
	}
	return s
}
