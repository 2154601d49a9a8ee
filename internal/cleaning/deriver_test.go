package cleaning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/spatial"
)

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, models.TimeOfDayNight},
		{5, models.TimeOfDayNight},
		{6, models.TimeOfDayMorning},
		{11, models.TimeOfDayMorning},
		{12, models.TimeOfDayAfternoon},
		{16, models.TimeOfDayAfternoon},
		{17, models.TimeOfDayEvening},
		{20, models.TimeOfDayEvening},
		{21, models.TimeOfDayNight},
		{23, models.TimeOfDayNight},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeOfDay(tt.hour), "hour=%d", tt.hour)
	}
}

func TestSpeedCategory(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{0, models.SpeedVerySlow},
		{4.99, models.SpeedVerySlow},
		{5, models.SpeedSlow},
		{14.99, models.SpeedSlow},
		{15, models.SpeedModerate},
		{25, models.SpeedFast},
		{39.99, models.SpeedFast},
		{40, models.SpeedVeryFast},
		{99, models.SpeedVeryFast},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpeedCategory(tt.speed), "speed=%v", tt.speed)
	}
}

func TestAverageSpeed(t *testing.T) {
	assert.InDelta(t, 10.0, AverageSpeed(1, 360), 1e-12)
	assert.Equal(t, 0.0, AverageSpeed(3.2, 0), "zero duration yields exactly 0")
	assert.Equal(t, 0.0, AverageSpeed(0, 0))
}

func TestMondayBasedWeekday(t *testing.T) {
	assert.Equal(t, 0, MondayBasedWeekday(time.Monday))
	assert.Equal(t, 4, MondayBasedWeekday(time.Friday))
	assert.Equal(t, 5, MondayBasedWeekday(time.Saturday))
	assert.Equal(t, 6, MondayBasedWeekday(time.Sunday))
}

func TestDerive(t *testing.T) {
	d := NewDeriver(CanonicalPolicy())
	trip := tripOf(validRaw("id1"))

	c := d.Derive(trip)

	assert.Equal(t, trip, c.TripRecord)
	assert.InDelta(t, 455.0/60, c.TripDurationMinutes, 1e-12)
	assert.InDelta(t, 0.9312, c.TripDistanceMiles, 1e-3)
	assert.Equal(t, spatial.GreatCircleDistanceMiles(40.767937, -73.982155, 40.765602, -73.964630), c.TripDistanceMiles)
	assert.InDelta(t, c.TripDistanceMiles/(455.0/3600), c.AvgSpeedMph, 1e-9)
	assert.Equal(t, 17, c.PickupHour)
	assert.Equal(t, 0, c.PickupDayOfWeek)
	assert.Equal(t, "Monday", c.PickupDayName)
	assert.Equal(t, 3, c.PickupMonth)
	assert.False(t, c.IsWeekend)
	assert.True(t, c.IsRushHour)
	assert.Equal(t, models.TimeOfDayEvening, c.TimeOfDay)
	assert.Equal(t, models.SpeedSlow, c.SpeedCategory)
}

func TestDerive_Weekend(t *testing.T) {
	d := NewDeriver(CanonicalPolicy())

	sat := d.Derive(tripOf(withPickupTime(validRaw("a"), "2016-03-19 09:05:00")))
	assert.Equal(t, 5, sat.PickupDayOfWeek)
	assert.Equal(t, "Saturday", sat.PickupDayName)
	assert.True(t, sat.IsWeekend)
	assert.False(t, sat.IsRushHour)
	assert.Equal(t, models.TimeOfDayMorning, sat.TimeOfDay)

	sun := d.Derive(tripOf(withPickupTime(validRaw("b"), "2016-06-12 23:59:59")))
	assert.Equal(t, 6, sun.PickupDayOfWeek)
	assert.Equal(t, 6, sun.PickupMonth)
	assert.True(t, sun.IsWeekend)
	assert.Equal(t, models.TimeOfDayNight, sun.TimeOfDay)
}

func TestDerive_SpeedMatchesDistanceOverDuration(t *testing.T) {
	d := NewDeriver(CanonicalPolicy())
	for _, seconds := range []int64{10, 61, 455, 3600, 86400} {
		c := d.Derive(tripOf(withDuration(validRaw("x"), seconds)))
		assert.InDelta(t, c.TripDistanceMiles/(float64(seconds)/3600), c.AvgSpeedMph, 1e-9, "duration=%d", seconds)
	}

	// zero duration never reaches derivation after validation, but must not
	// produce Inf or NaN
	c := d.Derive(tripOf(withDuration(validRaw("z"), 0)))
	assert.Equal(t, 0.0, c.AvgSpeedMph)
	assert.Equal(t, models.SpeedVerySlow, c.SpeedCategory)
}

func TestDerive_WallClockKept(t *testing.T) {
	d := NewDeriver(CanonicalPolicy())
	r := validRaw("tz")
	loc := time.FixedZone("EST", -5*3600)
	r.PickupDatetime.Time = time.Date(2016, 1, 1, 23, 30, 0, 0, loc)

	c := d.Derive(tripOf(r))
	assert.Equal(t, 23, c.PickupHour)
	assert.Equal(t, 1, c.PickupMonth)
}

func TestDerive_AlternatePolicy(t *testing.T) {
	d := NewDeriver(AlternatePolicy())
	c := d.Derive(tripOf(withPickupTime(validRaw("a"), "2016-03-14 09:10:00")))

	assert.InDelta(t, 0.9312*spatial.EarthRadiusKm/spatial.EarthRadiusMiles, c.TripDistanceMiles, 2e-3)
	assert.True(t, c.IsRushHour)
}
