package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/urbanmobility/taxi-backend-go/internal/database"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/spatial"
)

// StatsRepository handles aggregate queries over the trip tables
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStatistics retrieves dataset-wide means. An empty store yields zeros.
func (r *StatsRepository) GetStatistics(ctx context.Context) (*models.TripStatistics, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(AVG(trip_duration_minutes), 0),
		COALESCE(AVG(trip_distance_miles), 0),
		COALESCE(AVG(avg_speed_mph), 0),
		COALESCE(AVG(CAST(passenger_count AS DOUBLE PRECISION)), 0)
		FROM trips`

	var s models.TripStatistics
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.TotalTrips, &s.AvgDurationMinutes, &s.AvgDistanceMiles, &s.AvgSpeedMph, &s.AvgPassengers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	return &s, nil
}

// GetTimePatterns retrieves the time-of-day, hourly, daily and rush-hour
// aggregates
func (r *StatsRepository) GetTimePatterns(ctx context.Context) (*models.TimePatterns, error) {
	patterns := &models.TimePatterns{
		ByTimeOfDay:        []models.TimeOfDayPattern{},
		ByHour:             []models.HourlyPattern{},
		ByDayOfWeek:        []models.DailyPattern{},
		RushHourComparison: []models.RushHourComparison{},
	}

	// Trips by time of day
	err := r.query(ctx, `SELECT
		tt.time_of_day,
		COUNT(*) AS trip_count,
		AVG(t.avg_speed_mph),
		AVG(t.trip_duration_minutes)
		FROM trip_temporal tt
		JOIN trips t ON tt.trip_id = t.id
		GROUP BY tt.time_of_day
		ORDER BY trip_count DESC, tt.time_of_day`,
		func(rows *sql.Rows) error {
			var p models.TimeOfDayPattern
			if err := rows.Scan(&p.TimeOfDay, &p.TripCount, &p.AvgSpeed, &p.AvgDuration); err != nil {
				return err
			}
			patterns.ByTimeOfDay = append(patterns.ByTimeOfDay, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query time of day pattern: %w", err)
	}

	// Trips by hour
	err = r.query(ctx, `SELECT
		tt.pickup_hour,
		COUNT(*),
		AVG(t.avg_speed_mph)
		FROM trip_temporal tt
		JOIN trips t ON tt.trip_id = t.id
		GROUP BY tt.pickup_hour
		ORDER BY tt.pickup_hour`,
		func(rows *sql.Rows) error {
			var p models.HourlyPattern
			if err := rows.Scan(&p.PickupHour, &p.TripCount, &p.AvgSpeed); err != nil {
				return err
			}
			patterns.ByHour = append(patterns.ByHour, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly pattern: %w", err)
	}

	// Trips by day of week
	err = r.query(ctx, `SELECT
		tt.pickup_day_name,
		COUNT(*) AS trip_count,
		AVG(t.trip_distance_miles)
		FROM trip_temporal tt
		JOIN trips t ON tt.trip_id = t.id
		GROUP BY tt.pickup_day_name
		ORDER BY trip_count DESC, tt.pickup_day_name`,
		func(rows *sql.Rows) error {
			var p models.DailyPattern
			if err := rows.Scan(&p.PickupDayName, &p.TripCount, &p.AvgDistance); err != nil {
				return err
			}
			patterns.ByDayOfWeek = append(patterns.ByDayOfWeek, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query daily pattern: %w", err)
	}

	// Rush hour vs non-rush hour
	err = r.query(ctx, `SELECT
		tt.is_rush_hour,
		COUNT(*),
		AVG(t.avg_speed_mph),
		AVG(t.trip_duration_minutes)
		FROM trip_temporal tt
		JOIN trips t ON tt.trip_id = t.id
		GROUP BY tt.is_rush_hour
		ORDER BY tt.is_rush_hour DESC`,
		func(rows *sql.Rows) error {
			var (
				p    models.RushHourComparison
				rush int
			)
			if err := rows.Scan(&rush, &p.TripCount, &p.AvgSpeed, &p.AvgDuration); err != nil {
				return err
			}
			p.Period = models.PeriodNonRushHour
			if rush == 1 {
				p.Period = models.PeriodRushHour
			}
			patterns.RushHourComparison = append(patterns.RushHourComparison, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query rush hour comparison: %w", err)
	}

	return patterns, nil
}

// GetSpeedPatterns retrieves the speed category distribution and its split
// by time of day
func (r *StatsRepository) GetSpeedPatterns(ctx context.Context) (*models.SpeedPatterns, error) {
	patterns := &models.SpeedPatterns{
		SpeedDistribution: []models.SpeedDistribution{},
		SpeedByTimeOfDay:  []models.SpeedByTimeOfDay{},
	}

	err := r.query(ctx, `SELECT
		tc.speed_category,
		COUNT(*) AS trip_count,
		AVG(t.trip_distance_miles),
		AVG(t.trip_duration_minutes)
		FROM trip_categories tc
		JOIN trips t ON tc.trip_id = t.id
		GROUP BY tc.speed_category
		ORDER BY trip_count DESC, tc.speed_category`,
		func(rows *sql.Rows) error {
			var d models.SpeedDistribution
			if err := rows.Scan(&d.SpeedCategory, &d.TripCount, &d.AvgDistance, &d.AvgDuration); err != nil {
				return err
			}
			patterns.SpeedDistribution = append(patterns.SpeedDistribution, d)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query speed distribution: %w", err)
	}

	err = r.query(ctx, `SELECT
		tt.time_of_day,
		tc.speed_category,
		COUNT(*) AS trip_count
		FROM trip_temporal tt
		JOIN trip_categories tc ON tt.trip_id = tc.trip_id
		GROUP BY tt.time_of_day, tc.speed_category
		ORDER BY tt.time_of_day, trip_count DESC, tc.speed_category`,
		func(rows *sql.Rows) error {
			var s models.SpeedByTimeOfDay
			if err := rows.Scan(&s.TimeOfDay, &s.SpeedCategory, &s.TripCount); err != nil {
				return err
			}
			patterns.SpeedByTimeOfDay = append(patterns.SpeedByTimeOfDay, s)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query speed by time of day: %w", err)
	}

	return patterns, nil
}

// GetLocationPatterns retrieves the most frequent pickup and dropoff
// locations. With a cell level, points are binned into s2 cells of that
// level and each cell is reported at its centre.
func (r *StatsRepository) GetLocationPatterns(ctx context.Context, filter models.LocationFilter) (*models.LocationPatterns, error) {
	if filter.Limit < models.MinLocationLimit || filter.Limit > models.MaxLocationLimit {
		filter.Limit = models.DefaultLocationLimit
	}

	pickups, err := r.locations(ctx, "pickup_latitude", "pickup_longitude", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query pickup locations: %w", err)
	}
	dropoffs, err := r.locations(ctx, "dropoff_latitude", "dropoff_longitude", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query dropoff locations: %w", err)
	}

	return &models.LocationPatterns{
		PickupLocations:  pickups,
		DropoffLocations: dropoffs,
		CellLevel:        filter.CellLevel,
	}, nil
}

func (r *StatsRepository) locations(ctx context.Context, latCol, lngCol string, filter models.LocationFilter) ([]models.HeatmapPoint, error) {
	query := fmt.Sprintf(`SELECT %[1]s, %[2]s, COUNT(*) AS trip_count
		FROM trips
		GROUP BY %[1]s, %[2]s
		ORDER BY trip_count DESC, %[1]s, %[2]s`, latCol, lngCol)

	var args []interface{}
	if filter.CellLevel == 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	points := []models.HeatmapPoint{}
	err := r.query(ctx, query, func(rows *sql.Rows) error {
		var p models.HeatmapPoint
		if err := rows.Scan(&p.Lat, &p.Lng, &p.TripCount); err != nil {
			return err
		}
		points = append(points, p)
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}

	if filter.CellLevel > 0 {
		points = binPoints(points, filter.CellLevel, filter.Limit)
	}
	return points, nil
}

// binPoints merges points sharing an s2 cell, most frequent cells first
func binPoints(points []models.HeatmapPoint, level, limit int) []models.HeatmapPoint {
	type cellKey struct{ lat, lng float64 }
	index := make(map[cellKey]int)
	binned := []models.HeatmapPoint{}

	for _, p := range points {
		lat, lng := spatial.CellCenter(p.Lat, p.Lng, level)
		key := cellKey{lat, lng}
		if i, ok := index[key]; ok {
			binned[i].TripCount += p.TripCount
			continue
		}
		index[key] = len(binned)
		binned = append(binned, models.HeatmapPoint{Lat: lat, Lng: lng, TripCount: p.TripCount})
	}

	sort.SliceStable(binned, func(i, j int) bool {
		if binned[i].TripCount != binned[j].TripCount {
			return binned[i].TripCount > binned[j].TripCount
		}
		if binned[i].Lat != binned[j].Lat {
			return binned[i].Lat < binned[j].Lat
		}
		return binned[i].Lng < binned[j].Lng
	})

	if len(binned) > limit {
		binned = binned[:limit]
	}
	return binned
}

// query runs a read query and hands every row to scan
func (r *StatsRepository) query(ctx context.Context, query string, scan func(*sql.Rows) error, args ...interface{}) error {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
