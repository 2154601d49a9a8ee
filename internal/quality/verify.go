package quality

import (
	"math"

	"github.com/urbanmobility/taxi-backend-go/internal/cleaning"
	"github.com/urbanmobility/taxi-backend-go/internal/dataset"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/stats"
)

// Verification rules
const (
	RuleDuplicateID        = "duplicate_id"
	RulePickupAfterDropoff = "pickup_after_dropoff"
	RuleDurationRange      = "duration_range"
	RulePassengers         = "passenger_count"
	RulePickupCoords       = "pickup_coords"
	RuleDropoffCoords      = "dropoff_coords"
	RuleSpeedLimit         = "speed_limit"
	RuleDerivedField       = "derived_field"
)

// floatTolerance absorbs rounding in derived columns read back from text
const floatTolerance = 1e-9

// Violation is one cleaned record breaking an output invariant
type Violation struct {
	ID    string `json:"id" yaml:"id"`
	Rule  string `json:"rule" yaml:"rule"`
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
}

// Verification is a report over cleaned records
type Verification struct {
	Rows             int                      `json:"rows" yaml:"rows"`
	Missing          map[string]int           `json:"missing" yaml:"missing"`
	Ranges           map[string]Range         `json:"ranges" yaml:"ranges"`
	Summary          map[string]stats.Summary `json:"summary" yaml:"summary"`
	TimeOfDay        map[string]int           `json:"time_of_day" yaml:"time_of_day"`
	DayOfWeek        map[string]int           `json:"pickup_day_name" yaml:"pickup_day_name"`
	SpeedCategory    map[string]int           `json:"speed_category" yaml:"speed_category"`
	ViolationsByRule map[string]int           `json:"violations_by_rule" yaml:"violations_by_rule"`
	Violations       []Violation              `json:"violations" yaml:"violations"`
}

// OK reports whether every record satisfied every invariant
func (v Verification) OK() bool {
	return len(v.Violations) == 0
}

// Verify checks cleaned records against the policy they were cleaned with.
// Derived columns are recomputed from the source fields and compared.
func Verify(records []models.CleanTripRecord, policy cleaning.Policy) Verification {
	v := Verification{
		Rows:             len(records),
		Missing:          map[string]int{dataset.ColVendorID: 0, dataset.ColStoreAndFwdFlag: 0},
		Ranges:           make(map[string]Range),
		Summary:          make(map[string]stats.Summary),
		TimeOfDay:        make(map[string]int),
		DayOfWeek:        make(map[string]int),
		SpeedCategory:    make(map[string]int),
		ViolationsByRule: make(map[string]int),
		Violations:       []Violation{},
	}

	deriver := cleaning.NewDeriver(policy)
	seen := make(map[string]bool, len(records))
	columns := map[string][]float64{}
	add := func(col string, value float64) {
		columns[col] = append(columns[col], value)
	}

	for _, r := range records {
		if !r.VendorID.Valid {
			v.Missing[dataset.ColVendorID]++
		}
		if !r.StoreAndFwdFlag.Valid {
			v.Missing[dataset.ColStoreAndFwdFlag]++
		}

		v.TimeOfDay[r.TimeOfDay]++
		v.DayOfWeek[r.PickupDayName]++
		v.SpeedCategory[r.SpeedCategory]++

		add(dataset.ColPassengerCount, float64(r.PassengerCount))
		add(dataset.ColTripDuration, float64(r.TripDuration))
		add("trip_duration_minutes", r.TripDurationMinutes)
		add("trip_distance_miles", r.TripDistanceMiles)
		add("avg_speed_mph", r.AvgSpeedMph)
		add("pickup_hour", float64(r.PickupHour))
		add(dataset.ColPickupLatitude, r.PickupLatitude)
		add(dataset.ColPickupLongitude, r.PickupLongitude)
		add(dataset.ColDropoffLatitude, r.DropoffLatitude)
		add(dataset.ColDropoffLongitude, r.DropoffLongitude)

		if seen[r.ID] {
			v.violate(r.ID, RuleDuplicateID, "")
		}
		seen[r.ID] = true

		if r.DropoffDatetime.Before(r.PickupDatetime) {
			v.violate(r.ID, RulePickupAfterDropoff, dataset.ColDropoffDatetime)
		}
		if !policy.IsDurationPlausible(r.TripDuration) {
			v.violate(r.ID, RuleDurationRange, dataset.ColTripDuration)
		}
		if !policy.IsPassengerCountPlausible(r.PassengerCount) {
			v.violate(r.ID, RulePassengers, dataset.ColPassengerCount)
		}
		if !policy.IsWithinServiceArea(r.PickupLatitude, r.PickupLongitude) {
			v.violate(r.ID, RulePickupCoords, "")
		}
		if !policy.IsWithinServiceArea(r.DropoffLatitude, r.DropoffLongitude) {
			v.violate(r.ID, RuleDropoffCoords, "")
		}
		if r.AvgSpeedMph > policy.MaxSpeed {
			v.violate(r.ID, RuleSpeedLimit, "avg_speed_mph")
		}

		for _, field := range mismatchedFields(r, deriver.Derive(r.TripRecord)) {
			v.violate(r.ID, RuleDerivedField, field)
		}
	}

	for _, col := range []string{
		dataset.ColPassengerCount, dataset.ColTripDuration, "trip_distance_miles", "avg_speed_mph",
		dataset.ColPickupLatitude, dataset.ColPickupLongitude, dataset.ColDropoffLatitude, dataset.ColDropoffLongitude,
	} {
		v.Ranges[col] = rangeOf(columns[col])
	}
	for _, col := range []string{
		"trip_duration_minutes", "trip_distance_miles", "avg_speed_mph", dataset.ColPassengerCount, "pickup_hour",
	} {
		v.Summary[col] = stats.Describe(columns[col])
	}

	return v
}

func (v *Verification) violate(id, rule, field string) {
	v.Violations = append(v.Violations, Violation{ID: id, Rule: rule, Field: field})
	v.ViolationsByRule[rule]++
}

// mismatchedFields lists the derived columns of got that differ from want
func mismatchedFields(got, want models.CleanTripRecord) []string {
	var fields []string
	check := func(field string, ok bool) {
		if !ok {
			fields = append(fields, field)
		}
	}

	check("trip_duration_minutes", closeEnough(got.TripDurationMinutes, want.TripDurationMinutes))
	check("trip_distance_miles", closeEnough(got.TripDistanceMiles, want.TripDistanceMiles))
	check("avg_speed_mph", closeEnough(got.AvgSpeedMph, want.AvgSpeedMph))
	check("pickup_hour", got.PickupHour == want.PickupHour)
	check("pickup_day_of_week", got.PickupDayOfWeek == want.PickupDayOfWeek)
	check("pickup_day_name", got.PickupDayName == want.PickupDayName)
	check("pickup_month", got.PickupMonth == want.PickupMonth)
	check("is_weekend", got.IsWeekend == want.IsWeekend)
	check("is_rush_hour", got.IsRushHour == want.IsRushHour)
	check("time_of_day", got.TimeOfDay == want.TimeOfDay)
	check("speed_category", got.SpeedCategory == want.SpeedCategory)

	return fields
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance*math.Max(1, math.Abs(b))
}
