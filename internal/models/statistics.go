package models

// TripStatistics represents overall dataset statistics
type TripStatistics struct {
	TotalTrips         int64   `json:"total_trips"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	AvgDistanceMiles   float64 `json:"avg_distance_miles"`
	AvgSpeedMph        float64 `json:"avg_speed_mph"`
	AvgPassengers      float64 `json:"avg_passengers"`
}

// TimeOfDayPattern aggregates trips per time-of-day category
type TimeOfDayPattern struct {
	TimeOfDay   string  `json:"time_of_day"`
	TripCount   int64   `json:"trip_count"`
	AvgSpeed    float64 `json:"avg_speed"`
	AvgDuration float64 `json:"avg_duration"`
}

// HourlyPattern aggregates trips per pickup hour
type HourlyPattern struct {
	PickupHour int     `json:"pickup_hour"`
	TripCount  int64   `json:"trip_count"`
	AvgSpeed   float64 `json:"avg_speed"`
}

// DailyPattern aggregates trips per pickup weekday
type DailyPattern struct {
	PickupDayName string  `json:"pickup_day_name"`
	TripCount     int64   `json:"trip_count"`
	AvgDistance   float64 `json:"avg_distance"`
}

// RushHourComparison compares rush-hour trips against the rest
type RushHourComparison struct {
	Period      string  `json:"period"` // "Rush Hour" or "Non-Rush Hour"
	TripCount   int64   `json:"trip_count"`
	AvgSpeed    float64 `json:"avg_speed"`
	AvgDuration float64 `json:"avg_duration"`
}

// TimePatterns groups all time-based aggregates
type TimePatterns struct {
	ByTimeOfDay        []TimeOfDayPattern   `json:"by_time_of_day"`
	ByHour             []HourlyPattern      `json:"by_hour"`
	ByDayOfWeek        []DailyPattern       `json:"by_day_of_week"`
	RushHourComparison []RushHourComparison `json:"rush_hour_comparison"`
}

// SpeedDistribution aggregates trips per speed category
type SpeedDistribution struct {
	SpeedCategory string  `json:"speed_category"`
	TripCount     int64   `json:"trip_count"`
	AvgDistance   float64 `json:"avg_distance"`
	AvgDuration   float64 `json:"avg_duration"`
}

// SpeedByTimeOfDay counts trips per (time of day, speed category)
type SpeedByTimeOfDay struct {
	TimeOfDay     string `json:"time_of_day"`
	SpeedCategory string `json:"speed_category"`
	TripCount     int64  `json:"trip_count"`
}

// SpeedPatterns groups all speed aggregates
type SpeedPatterns struct {
	SpeedDistribution []SpeedDistribution `json:"speed_distribution"`
	SpeedByTimeOfDay  []SpeedByTimeOfDay  `json:"speed_by_time_of_day"`
}

// RushHourPeriod labels
const (
	PeriodRushHour    = "Rush Hour"
	PeriodNonRushHour = "Non-Rush Hour"
)
