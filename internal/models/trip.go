package models

import (
	"database/sql"
	"time"
)

// DateTimeLayout is the wall-clock layout used for trip timestamps in CSV
// files and in the store
const DateTimeLayout = "2006-01-02 15:04:05"

// RawTripRecord represents one row of the raw taxi trip feed.
// Nothing is guaranteed before cleaning: any nullable field may be missing
// (empty or unparsable cell), and values may be out of range.
type RawTripRecord struct {
	ID               string
	VendorID         sql.NullInt64
	PickupDatetime   sql.NullTime // Wall clock, no time zone conversion
	DropoffDatetime  sql.NullTime
	PassengerCount   sql.NullInt64
	PickupLongitude  sql.NullFloat64
	PickupLatitude   sql.NullFloat64
	DropoffLongitude sql.NullFloat64
	DropoffLatitude  sql.NullFloat64
	StoreAndFwdFlag  sql.NullString
	TripDuration     sql.NullInt64 // Seconds, supplied independently of the timestamps
}

// RawTripKey is the comparable identity of a raw record across every
// original field. Two records with equal keys are exact duplicates.
type RawTripKey struct {
	ID               string
	VendorID         sql.NullInt64
	PickupUnix       int64
	PickupValid      bool
	DropoffUnix      int64
	DropoffValid     bool
	PassengerCount   sql.NullInt64
	PickupLongitude  sql.NullFloat64
	PickupLatitude   sql.NullFloat64
	DropoffLongitude sql.NullFloat64
	DropoffLatitude  sql.NullFloat64
	StoreAndFwdFlag  sql.NullString
	TripDuration     sql.NullInt64
}

// Key returns the duplicate-detection key of the record
func (r RawTripRecord) Key() RawTripKey {
	k := RawTripKey{
		ID:               r.ID,
		VendorID:         r.VendorID,
		PassengerCount:   r.PassengerCount,
		PickupLongitude:  r.PickupLongitude,
		PickupLatitude:   r.PickupLatitude,
		DropoffLongitude: r.DropoffLongitude,
		DropoffLatitude:  r.DropoffLatitude,
		StoreAndFwdFlag:  r.StoreAndFwdFlag,
		TripDuration:     r.TripDuration,
	}
	if r.PickupDatetime.Valid {
		k.PickupUnix = r.PickupDatetime.Time.UnixNano()
		k.PickupValid = true
	}
	if r.DropoffDatetime.Valid {
		k.DropoffUnix = r.DropoffDatetime.Time.UnixNano()
		k.DropoffValid = true
	}
	return k
}

// TripRecord is a raw record whose required fields are all present
type TripRecord struct {
	ID               string
	VendorID         sql.NullInt64
	PickupDatetime   time.Time
	DropoffDatetime  time.Time
	PassengerCount   int
	PickupLongitude  float64
	PickupLatitude   float64
	DropoffLongitude float64
	DropoffLatitude  float64
	StoreAndFwdFlag  sql.NullString
	TripDuration     int
}

// CleanTripRecord is a validated trip with its derived features
type CleanTripRecord struct {
	TripRecord

	// Derived trip metrics
	TripDurationMinutes float64
	TripDistanceMiles   float64
	AvgSpeedMph         float64

	// Temporal features taken from the pickup wall clock
	PickupHour      int    // 0-23
	PickupDayOfWeek int    // 0=Monday .. 6=Sunday
	PickupDayName   string // Monday .. Sunday
	PickupMonth     int    // 1-12
	IsWeekend       bool
	IsRushHour      bool
	TimeOfDay       string

	SpeedCategory string
}

// TimeOfDay values
const (
	TimeOfDayMorning   = "morning"
	TimeOfDayAfternoon = "afternoon"
	TimeOfDayEvening   = "evening"
	TimeOfDayNight     = "night"
)

// SpeedCategory values
const (
	SpeedVerySlow = "very_slow"
	SpeedSlow     = "slow"
	SpeedModerate = "moderate"
	SpeedFast     = "fast"
	SpeedVeryFast = "very_fast"
)

// TimesOfDay lists the time-of-day categories in day order
var TimesOfDay = []string{TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayNight}

// SpeedCategories lists the speed categories from slowest to fastest
var SpeedCategories = []string{SpeedVerySlow, SpeedSlow, SpeedModerate, SpeedFast, SpeedVeryFast}

// Trip is the list view of a stored trip
type Trip struct {
	ID                  string  `json:"id"`
	VendorID            *int64  `json:"vendor_id"`
	PickupDatetime      string  `json:"pickup_datetime"`
	DropoffDatetime     string  `json:"dropoff_datetime"`
	PassengerCount      int     `json:"passenger_count"`
	TripDurationMinutes float64 `json:"trip_duration_minutes"`
	TripDistanceMiles   float64 `json:"trip_distance_miles"`
	AvgSpeedMph         float64 `json:"avg_speed_mph"`
	TimeOfDay           *string `json:"time_of_day"`
	SpeedCategory       *string `json:"speed_category"`
}

// TripDetail is the full view of a stored trip
type TripDetail struct {
	Trip

	PickupLongitude  float64 `json:"pickup_longitude"`
	PickupLatitude   float64 `json:"pickup_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude"`
	DropoffLatitude  float64 `json:"dropoff_latitude"`
	StoreAndFwdFlag  *string `json:"store_and_fwd_flag"`
	TripDuration     int     `json:"trip_duration"`
	PickupHour       *int    `json:"pickup_hour"`
	PickupDayName    *string `json:"pickup_day_name"`
	IsWeekend        *int    `json:"is_weekend"`
	IsRushHour       *int    `json:"is_rush_hour"`
}

// TripsResponse represents a page of trips
type TripsResponse struct {
	Data   []Trip `json:"data"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
