package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/database"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

// TripRepository handles database operations for trips
type TripRepository struct {
	db *database.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *database.DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetTrips retrieves a page of trips ordered by id
func (r *TripRepository) GetTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	query := `SELECT
		t.id, t.vendor_id, t.pickup_datetime, t.dropoff_datetime,
		t.passenger_count, t.trip_duration_minutes, t.trip_distance_miles,
		t.avg_speed_mph, tt.time_of_day, tc.speed_category
		FROM trips t
		LEFT JOIN trip_temporal tt ON t.id = tt.trip_id
		LEFT JOIN trip_categories tc ON t.id = tc.trip_id`

	var conditions []string
	var args []interface{}

	// Add filters
	if filter.TimeOfDay != "" {
		conditions = append(conditions, "tt.time_of_day = ?")
		args = append(args, filter.TimeOfDay)
	}
	if filter.SpeedCategory != "" {
		conditions = append(conditions, "tc.speed_category = ?")
		args = append(args, filter.SpeedCategory)
	}
	if filter.MinDistance != nil {
		conditions = append(conditions, "t.trip_distance_miles >= ?")
		args = append(args, *filter.MinDistance)
	}
	if filter.MaxDistance != nil {
		conditions = append(conditions, "t.trip_distance_miles <= ?")
		args = append(args, *filter.MaxDistance)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Add pagination
	if filter.Limit < models.MinTripLimit {
		filter.Limit = models.DefaultTripLimit
	}
	if filter.Limit > models.MaxTripLimit {
		filter.Limit = models.MaxTripLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	query += " ORDER BY t.id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := make([]models.Trip, 0, filter.Limit)
	for rows.Next() {
		var (
			t             models.Trip
			vendorID      sql.NullInt64
			timeOfDay     sql.NullString
			speedCategory sql.NullString
		)
		err := rows.Scan(
			&t.ID, &vendorID, &t.PickupDatetime, &t.DropoffDatetime,
			&t.PassengerCount, &t.TripDurationMinutes, &t.TripDistanceMiles,
			&t.AvgSpeedMph, &timeOfDay, &speedCategory,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		t.VendorID = int64Ptr(vendorID)
		t.TimeOfDay = stringPtr(timeOfDay)
		t.SpeedCategory = stringPtr(speedCategory)
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}

	return trips, nil
}

// GetTripByID retrieves a single trip with its temporal and category columns
func (r *TripRepository) GetTripByID(ctx context.Context, id string) (*models.TripDetail, error) {
	query := `SELECT
		t.id, t.vendor_id, t.pickup_datetime, t.dropoff_datetime,
		t.passenger_count, t.trip_duration_minutes, t.trip_distance_miles, t.avg_speed_mph,
		t.pickup_longitude, t.pickup_latitude, t.dropoff_longitude, t.dropoff_latitude,
		t.store_and_fwd_flag, t.trip_duration,
		tt.pickup_hour, tt.pickup_day_name, tt.is_weekend, tt.time_of_day, tt.is_rush_hour,
		tc.speed_category
		FROM trips t
		LEFT JOIN trip_temporal tt ON t.id = tt.trip_id
		LEFT JOIN trip_categories tc ON t.id = tc.trip_id
		WHERE t.id = ?`

	var (
		d             models.TripDetail
		vendorID      sql.NullInt64
		flag          sql.NullString
		hour          sql.NullInt64
		dayName       sql.NullString
		isWeekend     sql.NullInt64
		timeOfDay     sql.NullString
		isRushHour    sql.NullInt64
		speedCategory sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), id).Scan(
		&d.ID, &vendorID, &d.PickupDatetime, &d.DropoffDatetime,
		&d.PassengerCount, &d.TripDurationMinutes, &d.TripDistanceMiles, &d.AvgSpeedMph,
		&d.PickupLongitude, &d.PickupLatitude, &d.DropoffLongitude, &d.DropoffLatitude,
		&flag, &d.TripDuration,
		&hour, &dayName, &isWeekend, &timeOfDay, &isRushHour,
		&speedCategory,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.NotFound, "get trip", "trip %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	d.VendorID = int64Ptr(vendorID)
	d.StoreAndFwdFlag = stringPtr(flag)
	d.PickupHour = intPtr(hour)
	d.PickupDayName = stringPtr(dayName)
	d.IsWeekend = intPtr(isWeekend)
	d.TimeOfDay = stringPtr(timeOfDay)
	d.IsRushHour = intPtr(isRushHour)
	d.SpeedCategory = stringPtr(speedCategory)

	return &d, nil
}

// CountTrips returns the number of stored trips
func (r *TripRepository) CountTrips(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return count, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
