package cleaning

import (
	"math"
	"time"

	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/spatial"
)

// Deriver computes the enrichment columns of a validated trip.
// It never filters; records are assumed to satisfy the policy already.
type Deriver struct {
	policy Policy
}

// NewDeriver creates a deriver for the given policy
func NewDeriver(policy Policy) *Deriver {
	return &Deriver{policy: policy}
}

// Derive maps a validated trip to a clean trip record
func (d *Deriver) Derive(r models.TripRecord) models.CleanTripRecord {
	distance := spatial.GreatCircleDistance(
		r.PickupLatitude, r.PickupLongitude,
		r.DropoffLatitude, r.DropoffLongitude,
		d.policy.EarthRadius,
	)
	speed := AverageSpeed(distance, r.TripDuration)

	// Wall-clock fields as recorded, no zone conversion
	pickup := r.PickupDatetime
	hour := pickup.Hour()
	dayOfWeek := MondayBasedWeekday(pickup.Weekday())

	return models.CleanTripRecord{
		TripRecord:          r,
		TripDurationMinutes: float64(r.TripDuration) / 60,
		TripDistanceMiles:   distance,
		AvgSpeedMph:         speed,
		PickupHour:          hour,
		PickupDayOfWeek:     dayOfWeek,
		PickupDayName:       pickup.Weekday().String(),
		PickupMonth:         int(pickup.Month()),
		IsWeekend:           dayOfWeek >= 5,
		IsRushHour:          d.policy.IsRushHour(hour),
		TimeOfDay:           TimeOfDay(hour),
		SpeedCategory:       SpeedCategory(speed),
	}
}

// AverageSpeed returns distance per hour for a duration in seconds.
// A zero duration, or any non-finite result, yields 0.
func AverageSpeed(distance float64, durationSeconds int) float64 {
	if durationSeconds == 0 {
		return 0
	}
	speed := distance / (float64(durationSeconds) / 3600)
	if math.IsInf(speed, 0) || math.IsNaN(speed) {
		return 0
	}
	return speed
}

// MondayBasedWeekday converts a weekday to 0=Monday .. 6=Sunday
func MondayBasedWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// TimeOfDay buckets an hour with half-open ranges:
// [6,12) morning, [12,17) afternoon, [17,21) evening, otherwise night.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return models.TimeOfDayMorning
	case hour >= 12 && hour < 17:
		return models.TimeOfDayAfternoon
	case hour >= 17 && hour < 21:
		return models.TimeOfDayEvening
	default:
		return models.TimeOfDayNight
	}
}

// SpeedCategory buckets an average speed:
// <5 very_slow, <15 slow, <25 moderate, <40 fast, otherwise very_fast.
func SpeedCategory(speed float64) string {
	switch {
	case speed < 5:
		return models.SpeedVerySlow
	case speed < 15:
		return models.SpeedSlow
	case speed < 25:
		return models.SpeedModerate
	case speed < 40:
		return models.SpeedFast
	default:
		return models.SpeedVeryFast
	}
}
