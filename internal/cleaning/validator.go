package cleaning

import (
	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

var canonical = CanonicalPolicy()

// RequiredFields lists the columns that must be present in every kept record
var RequiredFields = []string{
	"pickup_datetime",
	"dropoff_datetime",
	"pickup_longitude",
	"pickup_latitude",
	"dropoff_longitude",
	"dropoff_latitude",
	"trip_duration",
	"passenger_count",
}

// HasRequiredFields reports whether every required field of r is present
func HasRequiredFields(r models.RawTripRecord) bool {
	return r.PickupDatetime.Valid &&
		r.DropoffDatetime.Valid &&
		r.PickupLongitude.Valid &&
		r.PickupLatitude.Valid &&
		r.DropoffLongitude.Valid &&
		r.DropoffLatitude.Valid &&
		r.TripDuration.Valid &&
		r.PassengerCount.Valid
}

// IsDurationPlausible reports whether a trip duration in seconds lies in the
// policy window
func (p Policy) IsDurationPlausible(duration int) bool {
	return duration >= p.MinDurationSeconds && duration <= p.MaxDurationSeconds
}

// IsPassengerCountPlausible reports whether count lies in the policy range
func (p Policy) IsPassengerCountPlausible(count int) bool {
	return count >= p.MinPassengers && count <= p.MaxPassengers
}

// IsWithinServiceArea reports whether a point lies in the policy service area
func (p Policy) IsWithinServiceArea(lat, lon float64) bool {
	return p.ServiceArea.Contains(lat, lon)
}

// IsRushHour reports whether hour belongs to the policy rush-hour set
func (p Policy) IsRushHour(hour int) bool {
	for _, h := range p.RushHours {
		if h == hour {
			return true
		}
	}
	return false
}

// IsDurationPlausible applies the canonical 10 s to 24 h window
func IsDurationPlausible(duration int) bool {
	return canonical.IsDurationPlausible(duration)
}

// IsPassengerCountPlausible applies the canonical 1-6 passenger range
func IsPassengerCountPlausible(count int) bool {
	return canonical.IsPassengerCountPlausible(count)
}

// IsWithinServiceArea applies the canonical NYC bounding box
func IsWithinServiceArea(lat, lon float64) bool {
	return canonical.IsWithinServiceArea(lat, lon)
}

// IsRushHour applies the canonical rush-hour set {7, 8, 17, 18}
func IsRushHour(hour int) bool {
	return canonical.IsRushHour(hour)
}
