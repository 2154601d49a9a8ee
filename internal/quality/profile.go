// Package quality profiles raw trip feeds before cleaning and verifies
// cleaned output after it.
package quality

import (
	"sort"
	"strconv"

	"github.com/urbanmobility/taxi-backend-go/internal/cleaning"
	"github.com/urbanmobility/taxi-backend-go/internal/dataset"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/stats"
)

// Thresholds reported by the raw profile
const (
	ShortTripSeconds       = 60
	LongTripSeconds        = 3 * 3600
	VeryLongTripSeconds    = 24 * 3600
	MaxPlausiblePassengers = 6
)

// Range is the observed [min, max] of a column
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DurationProfile describes the raw trip_duration column
type DurationProfile struct {
	Negative   int     `json:"negative" yaml:"negative"`
	Zero       int     `json:"zero" yaml:"zero"`
	UnderMin   int     `json:"under_1_minute" yaml:"under_1_minute"`
	Over3h     int     `json:"over_3_hours" yaml:"over_3_hours"`
	Over24h    int     `json:"over_24_hours" yaml:"over_24_hours"`
	Range      Range   `json:"range" yaml:"range"`
	MeanSecs   float64 `json:"mean_seconds" yaml:"mean_seconds"`
	MedianSecs float64 `json:"median_seconds" yaml:"median_seconds"`
}

// PassengerProfile describes the raw passenger_count column
type PassengerProfile struct {
	Zero         int           `json:"zero" yaml:"zero"`
	BelowOne     int           `json:"below_one" yaml:"below_one"`
	AboveSix     int           `json:"above_six" yaml:"above_six"`
	Range        Range         `json:"range" yaml:"range"`
	Distribution map[int64]int `json:"distribution" yaml:"distribution"`
}

// CoordinateProfile describes one trip endpoint
type CoordinateProfile struct {
	Latitude         Range `json:"latitude" yaml:"latitude"`
	Longitude        Range `json:"longitude" yaml:"longitude"`
	LatitudeOutside  int   `json:"latitude_outside" yaml:"latitude_outside"`
	LongitudeOutside int   `json:"longitude_outside" yaml:"longitude_outside"`
}

// OutlierProfile reports the Tukey fences of trip_duration.
// Bounds are unclamped here; cleaning clamps the lower fence at zero.
type OutlierProfile struct {
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
	IQR     float64 `json:"iqr" yaml:"iqr"`
	Lower   float64 `json:"lower" yaml:"lower"`
	Upper   float64 `json:"upper" yaml:"upper"`
}

// Profile is a data quality report of a raw feed
type Profile struct {
	Rows             int               `json:"rows" yaml:"rows"`
	Missing          map[string]int    `json:"missing" yaml:"missing"`
	Duplicates       int               `json:"duplicates" yaml:"duplicates"`
	Duration         DurationProfile   `json:"trip_duration" yaml:"trip_duration"`
	Passengers       PassengerProfile  `json:"passenger_count" yaml:"passenger_count"`
	Pickup           CoordinateProfile `json:"pickup" yaml:"pickup"`
	Dropoff          CoordinateProfile `json:"dropoff" yaml:"dropoff"`
	Vendors          map[string]int    `json:"vendor_id" yaml:"vendor_id"`
	StoreAndFwdFlags map[string]int    `json:"store_and_fwd_flag" yaml:"store_and_fwd_flag"`
	DurationOutliers OutlierProfile    `json:"duration_outliers" yaml:"duration_outliers"`
}

// nullLabel keys missing values in categorical distributions
const nullLabel = "null"

// ProfileRaw inspects raw records against the policy's service area and
// IQR multiplier. It never filters or modifies the input.
func ProfileRaw(records []models.RawTripRecord, policy cleaning.Policy) Profile {
	p := Profile{
		Rows:             len(records),
		Missing:          make(map[string]int),
		Vendors:          make(map[string]int),
		StoreAndFwdFlags: make(map[string]int),
		Passengers:       PassengerProfile{Distribution: make(map[int64]int)},
	}

	for _, col := range dataset.RawRequiredColumns {
		p.Missing[col] = 0
	}
	for _, col := range dataset.RawOptionalColumns {
		p.Missing[col] = 0
	}

	seen := make(map[models.RawTripKey]bool, len(records))
	var (
		durations              []float64
		passengers             []float64
		pickupLat, pickupLon   []float64
		dropoffLat, dropoffLon []float64
	)

	for _, r := range records {
		countMissing(p.Missing, r)

		key := r.Key()
		if seen[key] {
			p.Duplicates++
		}
		seen[key] = true

		if r.TripDuration.Valid {
			d := r.TripDuration.Int64
			durations = append(durations, float64(d))
			switch {
			case d < 0:
				p.Duration.Negative++
			case d == 0:
				p.Duration.Zero++
			}
			if d < ShortTripSeconds {
				p.Duration.UnderMin++
			}
			if d > LongTripSeconds {
				p.Duration.Over3h++
			}
			if d > VeryLongTripSeconds {
				p.Duration.Over24h++
			}
		}

		if r.PassengerCount.Valid {
			n := r.PassengerCount.Int64
			passengers = append(passengers, float64(n))
			p.Passengers.Distribution[n]++
			if n == 0 {
				p.Passengers.Zero++
			}
			if n < 1 {
				p.Passengers.BelowOne++
			}
			if n > MaxPlausiblePassengers {
				p.Passengers.AboveSix++
			}
		}

		if r.PickupLatitude.Valid {
			pickupLat = append(pickupLat, r.PickupLatitude.Float64)
		}
		if r.PickupLongitude.Valid {
			pickupLon = append(pickupLon, r.PickupLongitude.Float64)
		}
		if r.DropoffLatitude.Valid {
			dropoffLat = append(dropoffLat, r.DropoffLatitude.Float64)
		}
		if r.DropoffLongitude.Valid {
			dropoffLon = append(dropoffLon, r.DropoffLongitude.Float64)
		}

		p.Vendors[vendorLabel(r)]++
		p.StoreAndFwdFlags[flagLabel(r.StoreAndFwdFlag.String, r.StoreAndFwdFlag.Valid)]++
	}

	area := policy.ServiceArea
	p.Duration.Range = rangeOf(durations)
	p.Duration.MeanSecs = stats.Mean(durations)
	p.Duration.MedianSecs = stats.Percentile(durations, 50)
	p.Passengers.Range = rangeOf(passengers)
	p.Pickup = coordinateProfile(pickupLat, pickupLon, area)
	p.Dropoff = coordinateProfile(dropoffLat, dropoffLon, area)

	if len(durations) > 0 {
		lower, upper := stats.OutliersBounds(durations, policy.IQRMultiplier)
		count := stats.CountOutside(durations, lower, upper)
		p.DurationOutliers = OutlierProfile{
			Count:   count,
			Percent: float64(count) / float64(len(durations)) * 100,
			IQR:     stats.IQR(durations),
			Lower:   lower,
			Upper:   upper,
		}
	}

	return p
}

// MissingColumns returns the columns with at least one missing value, sorted
func (p Profile) MissingColumns() []string {
	var cols []string
	for col, n := range p.Missing {
		if n > 0 {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	return cols
}

func countMissing(missing map[string]int, r models.RawTripRecord) {
	if r.ID == "" {
		missing[dataset.ColID]++
	}
	if !r.VendorID.Valid {
		missing[dataset.ColVendorID]++
	}
	if !r.PickupDatetime.Valid {
		missing[dataset.ColPickupDatetime]++
	}
	if !r.DropoffDatetime.Valid {
		missing[dataset.ColDropoffDatetime]++
	}
	if !r.PassengerCount.Valid {
		missing[dataset.ColPassengerCount]++
	}
	if !r.PickupLongitude.Valid {
		missing[dataset.ColPickupLongitude]++
	}
	if !r.PickupLatitude.Valid {
		missing[dataset.ColPickupLatitude]++
	}
	if !r.DropoffLongitude.Valid {
		missing[dataset.ColDropoffLongitude]++
	}
	if !r.DropoffLatitude.Valid {
		missing[dataset.ColDropoffLatitude]++
	}
	if !r.StoreAndFwdFlag.Valid {
		missing[dataset.ColStoreAndFwdFlag]++
	}
	if !r.TripDuration.Valid {
		missing[dataset.ColTripDuration]++
	}
}

func coordinateProfile(lats, lons []float64, area cleaning.ServiceArea) CoordinateProfile {
	return CoordinateProfile{
		Latitude:         rangeOf(lats),
		Longitude:        rangeOf(lons),
		LatitudeOutside:  stats.CountOutside(lats, area.MinLat, area.MaxLat),
		LongitudeOutside: stats.CountOutside(lons, area.MinLon, area.MaxLon),
	}
}

func vendorLabel(r models.RawTripRecord) string {
	if !r.VendorID.Valid {
		return nullLabel
	}
	return strconv.FormatInt(r.VendorID.Int64, 10)
}

func flagLabel(flag string, valid bool) string {
	if !valid {
		return nullLabel
	}
	return flag
}

func rangeOf(values []float64) Range {
	return Range{Min: stats.Min(values), Max: stats.Max(values)}
}
