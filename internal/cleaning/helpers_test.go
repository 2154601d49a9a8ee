package cleaning

import (
	"database/sql"
	"time"

	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(models.DateTimeLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// validRaw returns a complete, in-range Monday 17:24 trip of ~0.93 miles
// lasting 455 seconds.
func validRaw(id string) models.RawTripRecord {
	return models.RawTripRecord{
		ID:               id,
		VendorID:         sql.NullInt64{Int64: 2, Valid: true},
		PickupDatetime:   sql.NullTime{Time: mustTime("2016-03-14 17:24:55"), Valid: true},
		DropoffDatetime:  sql.NullTime{Time: mustTime("2016-03-14 17:32:30"), Valid: true},
		PassengerCount:   sql.NullInt64{Int64: 1, Valid: true},
		PickupLongitude:  sql.NullFloat64{Float64: -73.982155, Valid: true},
		PickupLatitude:   sql.NullFloat64{Float64: 40.767937, Valid: true},
		DropoffLongitude: sql.NullFloat64{Float64: -73.964630, Valid: true},
		DropoffLatitude:  sql.NullFloat64{Float64: 40.765602, Valid: true},
		StoreAndFwdFlag:  sql.NullString{String: "N", Valid: true},
		TripDuration:     sql.NullInt64{Int64: 455, Valid: true},
	}
}

func withDuration(r models.RawTripRecord, seconds int64) models.RawTripRecord {
	r.TripDuration = sql.NullInt64{Int64: seconds, Valid: true}
	return r
}

func withPassengers(r models.RawTripRecord, n int64) models.RawTripRecord {
	r.PassengerCount = sql.NullInt64{Int64: n, Valid: true}
	return r
}

func withPickup(r models.RawTripRecord, lat, lon float64) models.RawTripRecord {
	r.PickupLatitude = sql.NullFloat64{Float64: lat, Valid: true}
	r.PickupLongitude = sql.NullFloat64{Float64: lon, Valid: true}
	return r
}

func withDropoff(r models.RawTripRecord, lat, lon float64) models.RawTripRecord {
	r.DropoffLatitude = sql.NullFloat64{Float64: lat, Valid: true}
	r.DropoffLongitude = sql.NullFloat64{Float64: lon, Valid: true}
	return r
}

func withPickupTime(r models.RawTripRecord, s string) models.RawTripRecord {
	r.PickupDatetime = sql.NullTime{Time: mustTime(s), Valid: true}
	return r
}

// withSchedule sets the pickup time and duration and moves dropoff to match
func withSchedule(r models.RawTripRecord, pickup string, seconds int64) models.RawTripRecord {
	start := mustTime(pickup)
	r.PickupDatetime = sql.NullTime{Time: start, Valid: true}
	r.DropoffDatetime = sql.NullTime{Time: start.Add(time.Duration(seconds) * time.Second), Valid: true}
	return withDuration(r, seconds)
}

func tripOf(r models.RawTripRecord) models.TripRecord {
	return ToTripRecords([]models.RawTripRecord{r})[0]
}

func nonZeroRemovals(entries []models.AuditEntry) []string {
	var rules []string
	for _, e := range entries {
		if e.Stage != models.StageSummary && e.RowsRemoved > 0 {
			rules = append(rules, e.Stage+"/"+e.Rule)
		}
	}
	return rules
}
