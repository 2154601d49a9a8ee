package cleaning

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

func endToEndFixture() []models.RawTripRecord {
	missing := validRaw("id0")
	missing.PickupLongitude = sql.NullFloat64{}

	return []models.RawTripRecord{
		missing,
		validRaw("id1"),
		validRaw("id1"), // exact duplicate
		withPassengers(validRaw("id3"), 0),
		withPickup(validRaw("id4"), 34.0522, -118.2437),
		withDuration(validRaw("id5"), 5),
	}
}

func TestPipelineRun_EndToEnd(t *testing.T) {
	p := NewPipeline(CanonicalPolicy(), nil)

	res := p.Run(endToEndFixture())

	require.Len(t, res.Records, 1)
	assert.Equal(t, "id1", res.Records[0].ID)

	assert.Equal(t, []string{
		"completeness/missing_required",
		"deduplication/exact_duplicate",
		"hard_range/duration_too_short",
		"hard_range/passenger_count",
		"hard_range/pickup_coords",
	}, nonZeroRemovals(res.Audit.Entries))

	stages := make([]string, 0, len(res.Audit.Entries))
	for i, e := range res.Audit.Entries {
		assert.Equal(t, i+1, e.Seq)
		stages = append(stages, e.Stage+"/"+e.Rule)
	}
	assert.Equal(t, []string{
		"completeness/missing_required",
		"deduplication/exact_duplicate",
		"hard_range/duration_non_positive",
		"hard_range/duration_too_long",
		"hard_range/duration_too_short",
		"hard_range/passenger_count",
		"hard_range/pickup_coords",
		"hard_range/dropoff_coords",
		"outlier/duration_iqr",
		"derivation/speed_limit",
		"summary/",
	}, stages)

	summary, ok := res.Audit.Summary()
	require.True(t, ok)
	assert.Equal(t, 6, summary.RowsIn)
	assert.Equal(t, 1, summary.RowsOut)
	assert.Equal(t, 5, summary.RowsRemoved)
	assert.NotEmpty(t, res.Audit.RunID)
	assert.Equal(t, "Rows in: 6, rows out: 1, removed: 5 (retention 16.67%)", summary.Message)
}

func TestPipelineRun_Deterministic(t *testing.T) {
	p := NewPipeline(CanonicalPolicy(), nil)
	input := endToEndFixture()

	first := p.Run(input)
	second := p.Run(input)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Audit.Entries, second.Audit.Entries)
	assert.Equal(t, first.Audit.Lines(), second.Audit.Lines())
	assert.NotEqual(t, first.Audit.RunID, second.Audit.RunID)
}

func TestPipelineRun_InputNotModified(t *testing.T) {
	input := endToEndFixture()
	snapshot := make([]models.RawTripRecord, len(input))
	copy(snapshot, input)

	NewPipeline(CanonicalPolicy(), nil).Run(input)

	assert.Equal(t, snapshot, input)
}

func TestPipelineRun_Empty(t *testing.T) {
	res := NewPipeline(CanonicalPolicy(), nil).Run(nil)

	assert.Empty(t, res.Records)
	summary, ok := res.Audit.Summary()
	require.True(t, ok)
	assert.Equal(t, 0, summary.RowsIn)
	assert.Equal(t, 0, summary.RowsOut)
	assert.Empty(t, nonZeroRemovals(res.Audit.Entries))
}

func TestPipelineRun_OutputSatisfiesInvariants(t *testing.T) {
	var input []models.RawTripRecord
	hours := []string{"00", "06", "07", "09", "12", "17", "18", "21", "23"}
	for i, h := range hours {
		pickup := "2016-03-1" + fmt.Sprint(i%7+3) + " " + h + ":10:00"
		input = append(input, withSchedule(validRaw(fmt.Sprintf("h%d", i)), pickup, int64(400+i*10)))
	}
	input = append(input, endToEndFixture()...)

	p := NewPipeline(CanonicalPolicy(), nil)
	res := p.Run(input)
	require.NotEmpty(t, res.Records)

	for _, c := range res.Records {
		assert.False(t, c.DropoffDatetime.Before(c.PickupDatetime), c.ID)
		assert.True(t, IsDurationPlausible(c.TripDuration), c.ID)
		assert.True(t, IsPassengerCountPlausible(c.PassengerCount), c.ID)
		assert.True(t, IsWithinServiceArea(c.PickupLatitude, c.PickupLongitude), c.ID)
		assert.True(t, IsWithinServiceArea(c.DropoffLatitude, c.DropoffLongitude), c.ID)
		assert.LessOrEqual(t, c.AvgSpeedMph, 100.0, c.ID)
		assert.Equal(t, c.PickupDatetime.Hour(), c.PickupHour, c.ID)
		assert.Equal(t, int(c.PickupDatetime.Month()), c.PickupMonth, c.ID)
		assert.Equal(t, c.PickupDatetime.Weekday().String(), c.PickupDayName, c.ID)
		assert.Equal(t, TimeOfDay(c.PickupHour), c.TimeOfDay, c.ID)
		assert.Equal(t, IsRushHour(c.PickupHour), c.IsRushHour, c.ID)
	}
}

func TestDeduplicate_FirstOccurrenceWins(t *testing.T) {
	a := validRaw("a")
	b := validRaw("b")
	aAgain := validRaw("a")
	// same id, different duration: not an exact duplicate
	aVariant := withDuration(validRaw("a"), 456)

	out, removed := Deduplicate([]models.RawTripRecord{a, b, aAgain, aVariant, b})

	assert.Equal(t, 2, removed)
	require.Len(t, out, 3)
	assert.Equal(t, a, out[0])
	assert.Equal(t, b, out[1])
	assert.Equal(t, aVariant, out[2])
}

func TestDeduplicate_NullsCompareEqual(t *testing.T) {
	a := validRaw("a")
	a.VendorID = sql.NullInt64{}
	a.StoreAndFwdFlag = sql.NullString{}

	out, removed := Deduplicate([]models.RawTripRecord{a, a})
	assert.Equal(t, 1, removed)
	assert.Len(t, out, 1)
}

func TestFilterHardRanges_SequentialCounts(t *testing.T) {
	// a negative duration row with bad passengers is counted once, under
	// the first rule that removes it
	trips := ToTripRecords([]models.RawTripRecord{
		withPassengers(withDuration(validRaw("a"), -1), 9),
		withDuration(validRaw("b"), 0),
		withDuration(validRaw("c"), 90000),
		withPassengers(validRaw("d"), 7),
		withDropoff(validRaw("e"), 40.4, -73.9),
		validRaw("f"),
	})

	kept, entries := FilterHardRanges(CanonicalPolicy(), trips)

	require.Len(t, kept, 1)
	assert.Equal(t, "f", kept[0].ID)

	counts := map[string]int{}
	for _, e := range entries {
		assert.Equal(t, models.StageHardRange, e.Stage)
		counts[e.Rule] = e.RowsRemoved
	}
	assert.Equal(t, map[string]int{
		models.RuleDurationNonPositive: 2,
		models.RuleDurationTooLong:     1,
		models.RuleDurationTooShort:    0,
		models.RulePassengerCount:      1,
		models.RulePickupCoords:        0,
		models.RuleDropoffCoords:       1,
	}, counts)
	assert.Equal(t, "Removed 1 rows with trip duration > 86400 seconds", entries[1].Message)
}

func TestFilterDurationOutliers(t *testing.T) {
	var raws []models.RawTripRecord
	for i, d := range []int64{400, 420, 440, 460, 480, 5000} {
		raws = append(raws, withDuration(validRaw(fmt.Sprintf("t%d", i)), d))
	}

	kept, entry := FilterDurationOutliers(CanonicalPolicy(), ToTripRecords(raws))

	assert.Len(t, kept, 5)
	for _, k := range kept {
		assert.NotEqual(t, 5000, k.TripDuration)
	}
	assert.Equal(t, 1, entry.RowsRemoved)
	require.NotNil(t, entry.LowerBound)
	require.NotNil(t, entry.UpperBound)
	assert.InDelta(t, 350.0, *entry.LowerBound, 1e-9)
	assert.InDelta(t, 550.0, *entry.UpperBound, 1e-9)
	assert.Equal(t, "Removed 1 outliers from trip_duration (bounds: 350 to 550 seconds, 5.8 to 9.2 minutes)", entry.Message)
}

func TestFilterDurationOutliers_DegenerateKeepsOnlyMode(t *testing.T) {
	var raws []models.RawTripRecord
	for i, d := range []int64{10, 10, 10, 10, 100} {
		raws = append(raws, withDuration(validRaw(fmt.Sprintf("t%d", i)), d))
	}

	kept, entry := FilterDurationOutliers(CanonicalPolicy(), ToTripRecords(raws))

	assert.Len(t, kept, 4)
	assert.Equal(t, 1, entry.RowsRemoved)
	assert.Equal(t, 0.0, *entry.LowerBound)
	assert.Equal(t, 10.0, *entry.UpperBound)
}

func TestFilterSpeed(t *testing.T) {
	d := NewDeriver(CanonicalPolicy())
	fast := DeriveAll(d, ToTripRecords([]models.RawTripRecord{
		validRaw("slow"),
		withDuration(validRaw("fast"), 10),
	}))
	require.Greater(t, fast[1].AvgSpeedMph, 300.0)

	kept, entry := FilterSpeed(CanonicalPolicy(), fast)

	require.Len(t, kept, 1)
	assert.Equal(t, "slow", kept[0].ID)
	assert.Equal(t, models.StageDerivation, entry.Stage)
	assert.Equal(t, 1, entry.RowsRemoved)
	assert.Equal(t, "Removed 1 rows with unrealistic speeds (>100 miles/h)", entry.Message)
}

func TestPipelineRun_SpeedFilterAfterDerivation(t *testing.T) {
	// same duration keeps the IQR pass degenerate so only speed can remove
	long := withDropoff(withPickup(validRaw("long"), 40.55, -74.25), 40.95, -73.75)

	res := NewPipeline(CanonicalPolicy(), nil).Run([]models.RawTripRecord{validRaw("short"), long})

	require.Len(t, res.Records, 1)
	assert.Equal(t, "short", res.Records[0].ID)
	assert.Equal(t, []string{"derivation/speed_limit"}, nonZeroRemovals(res.Audit.Entries))
}

func TestPipelineRun_AlternatePolicy(t *testing.T) {
	input := []models.RawTripRecord{
		validRaw("a"),
		withDuration(validRaw("b"), 30),
		withPickupTime(validRaw("c"), "2016-03-14 19:30:00"),
	}

	canon := NewPipeline(CanonicalPolicy(), nil).Run(input)
	alt := NewPipeline(AlternatePolicy(), nil).Run(input)

	// 30 s passes the canonical window but not the alternate one; the
	// canonical run then drops it at ~112 mph
	assert.Equal(t, []string{"derivation/speed_limit"}, nonZeroRemovals(canon.Audit.Entries))
	assert.Len(t, canon.Records, 2)
	assert.Equal(t, []string{"hard_range/duration_too_short"}, nonZeroRemovals(alt.Audit.Entries))

	require.Len(t, alt.Records, 2)
	assert.Equal(t, AlternatePolicy().Name, NewPipeline(AlternatePolicy(), nil).Policy().Name)
	for _, c := range alt.Records {
		assert.True(t, c.IsRushHour, c.ID)
		assert.InDelta(t, 1.4986, c.TripDistanceMiles, 1e-3)
	}
}
