package cleaning

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

func TestHasRequiredFields(t *testing.T) {
	assert.True(t, HasRequiredFields(validRaw("a")))

	clears := map[string]func(*models.RawTripRecord){
		"pickup_datetime":   func(r *models.RawTripRecord) { r.PickupDatetime = sql.NullTime{} },
		"dropoff_datetime":  func(r *models.RawTripRecord) { r.DropoffDatetime = sql.NullTime{} },
		"pickup_longitude":  func(r *models.RawTripRecord) { r.PickupLongitude = sql.NullFloat64{} },
		"pickup_latitude":   func(r *models.RawTripRecord) { r.PickupLatitude = sql.NullFloat64{} },
		"dropoff_longitude": func(r *models.RawTripRecord) { r.DropoffLongitude = sql.NullFloat64{} },
		"dropoff_latitude":  func(r *models.RawTripRecord) { r.DropoffLatitude = sql.NullFloat64{} },
		"trip_duration":     func(r *models.RawTripRecord) { r.TripDuration = sql.NullInt64{} },
		"passenger_count":   func(r *models.RawTripRecord) { r.PassengerCount = sql.NullInt64{} },
	}
	require.Len(t, clears, len(RequiredFields))

	for _, field := range RequiredFields {
		r := validRaw("a")
		clears[field](&r)
		assert.False(t, HasRequiredFields(r), field)
	}

	// optional fields may be missing
	r := validRaw("a")
	r.VendorID = sql.NullInt64{}
	r.StoreAndFwdFlag = sql.NullString{}
	r.ID = ""
	assert.True(t, HasRequiredFields(r))
}

func TestIsDurationPlausible(t *testing.T) {
	tests := []struct {
		seconds int
		want    bool
	}{
		{-5, false},
		{0, false},
		{9, false},
		{10, true},
		{455, true},
		{86400, true},
		{86401, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDurationPlausible(tt.seconds), "duration=%d", tt.seconds)
	}

	alt := AlternatePolicy()
	assert.False(t, alt.IsDurationPlausible(59))
	assert.True(t, alt.IsDurationPlausible(60))
	assert.True(t, alt.IsDurationPlausible(14400))
	assert.False(t, alt.IsDurationPlausible(14401))
}

func TestIsPassengerCountPlausible(t *testing.T) {
	for n := -1; n <= 8; n++ {
		assert.Equal(t, n >= 1 && n <= 6, IsPassengerCountPlausible(n), "count=%d", n)
	}
}

func TestIsWithinServiceArea(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"midtown", 40.767937, -73.982155, true},
		{"south-west corner", 40.5, -74.3, true},
		{"north-east corner", 41.0, -73.7, true},
		{"too far south", 40.4999, -73.9, false},
		{"too far north", 41.0001, -73.9, false},
		{"too far west", 40.7, -74.3001, false},
		{"too far east", 40.7, -73.6999, false},
		{"los angeles", 34.0522, -118.2437, false},
		{"null island", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinServiceArea(tt.lat, tt.lon))
		})
	}
}

func TestIsRushHour(t *testing.T) {
	assert.True(t, IsRushHour(7))
	assert.True(t, IsRushHour(8))
	assert.True(t, IsRushHour(17))
	assert.True(t, IsRushHour(18))
	assert.False(t, IsRushHour(9), "rush hour is four discrete hours, not 7-9")
	assert.False(t, IsRushHour(19))
	assert.False(t, IsRushHour(6))
	assert.False(t, IsRushHour(0))

	alt := AlternatePolicy()
	assert.True(t, alt.IsRushHour(9))
	assert.True(t, alt.IsRushHour(19))
	assert.False(t, alt.IsRushHour(10))
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, CanonicalPolicy().Validate())
	require.NoError(t, AlternatePolicy().Validate())

	broken := []func(*Policy){
		func(p *Policy) { p.MinDurationSeconds = 0 },
		func(p *Policy) { p.MaxDurationSeconds = 5 },
		func(p *Policy) { p.MaxPassengers = 0 },
		func(p *Policy) { p.ServiceArea.MinLat = 42 },
		func(p *Policy) { p.IQRMultiplier = -1 },
		func(p *Policy) { p.MaxSpeed = 0 },
		func(p *Policy) { p.RushHours = []int{24} },
		func(p *Policy) { p.DistanceUnit = "furlongs" },
		func(p *Policy) { p.EarthRadius = 0 },
	}
	for i, mutate := range broken {
		p := CanonicalPolicy()
		mutate(&p)
		assert.Error(t, p.Validate(), "case %d", i)
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, PolicyCanonical, p.Name)

	p, err = PolicyByName(PolicyAlternate)
	require.NoError(t, err)
	assert.Equal(t, 60, p.MinDurationSeconds)

	_, err = PolicyByName("lenient")
	assert.Error(t, err)
}

func TestPolicyOverrides(t *testing.T) {
	p := CanonicalPolicy().WithRushHours([]int{18, 7, 7, 9})
	assert.Equal(t, []int{7, 9, 18}, p.RushHours)

	km := CanonicalPolicy().WithDistanceUnit(UnitKilometers)
	assert.Equal(t, UnitKilometers, km.DistanceUnit)
	assert.Equal(t, 6371.0, km.EarthRadius)
}
