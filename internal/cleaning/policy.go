// Package cleaning validates, filters and enriches raw taxi trip records.
//
// A run is a fixed sequence of pure stages, each mapping one immutable record
// slice to the next: completeness filter, exact-duplicate removal, hard-range
// filter, IQR duration outlier filter, feature derivation followed by the
// speed filter. Every removal is counted in an ordered audit log.
package cleaning

import (
	"fmt"
	"sort"

	"github.com/urbanmobility/taxi-backend-go/internal/spatial"
)

// ServiceArea is a latitude/longitude bounding box, inclusive on all sides
type ServiceArea struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// Contains reports whether the point lies inside the box
func (a ServiceArea) Contains(lat, lon float64) bool {
	return lat >= a.MinLat && lat <= a.MaxLat && lon >= a.MinLon && lon <= a.MaxLon
}

// NYCServiceArea approximates the New York City taxi service area
var NYCServiceArea = ServiceArea{
	MinLat: 40.5,
	MaxLat: 41.0,
	MinLon: -74.3,
	MaxLon: -73.7,
}

// Distance units
const (
	UnitMiles      = "miles"
	UnitKilometers = "km"
)

// Policy names
const (
	PolicyCanonical = "canonical"
	PolicyAlternate = "alternate"
)

// Policy holds every tunable threshold of a cleaning run
type Policy struct {
	Name string

	MinDurationSeconds int // Inclusive
	MaxDurationSeconds int // Inclusive
	MinPassengers      int // Inclusive
	MaxPassengers      int // Inclusive
	ServiceArea        ServiceArea

	IQRMultiplier float64 // Tukey fence multiplier for the duration outlier pass
	MaxSpeed      float64 // Per hour, in DistanceUnit; faster trips are dropped after derivation

	RushHours []int // Explicit set of pickup hours flagged as rush hour

	DistanceUnit string
	EarthRadius  float64 // In DistanceUnit
}

// CanonicalPolicy returns the reference cleaning rules: 10 s to 24 h trips,
// 1-6 passengers, NYC bounding box, rush hours 7, 8, 17 and 18 only,
// distances in miles, speeds capped at 100 mph.
func CanonicalPolicy() Policy {
	return Policy{
		Name:               PolicyCanonical,
		MinDurationSeconds: 10,
		MaxDurationSeconds: 86400,
		MinPassengers:      1,
		MaxPassengers:      6,
		ServiceArea:        NYCServiceArea,
		IQRMultiplier:      1.5,
		MaxSpeed:           100,
		RushHours:          []int{7, 8, 17, 18},
		DistanceUnit:       UnitMiles,
		EarthRadius:        spatial.EarthRadiusMiles,
	}
}

// AlternatePolicy returns the stricter processor rules: 1 min to 4 h trips,
// inclusive rush-hour ranges 7-9 and 17-19, distances in kilometres.
// The speed cap is the canonical 100 mph expressed in km/h.
func AlternatePolicy() Policy {
	return Policy{
		Name:               PolicyAlternate,
		MinDurationSeconds: 60,
		MaxDurationSeconds: 14400,
		MinPassengers:      1,
		MaxPassengers:      6,
		ServiceArea:        NYCServiceArea,
		IQRMultiplier:      1.5,
		MaxSpeed:           160.9344,
		RushHours:          []int{7, 8, 9, 17, 18, 19},
		DistanceUnit:       UnitKilometers,
		EarthRadius:        spatial.EarthRadiusKm,
	}
}

// PolicyByName returns a predefined policy
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", PolicyCanonical:
		return CanonicalPolicy(), nil
	case PolicyAlternate:
		return AlternatePolicy(), nil
	default:
		return Policy{}, fmt.Errorf("unknown cleaning policy %q", name)
	}
}

// Validate checks that the policy is internally consistent
func (p Policy) Validate() error {
	if p.MinDurationSeconds <= 0 {
		return fmt.Errorf("min duration must be positive, got %d", p.MinDurationSeconds)
	}
	if p.MaxDurationSeconds < p.MinDurationSeconds {
		return fmt.Errorf("max duration %d is below min duration %d", p.MaxDurationSeconds, p.MinDurationSeconds)
	}
	if p.MinPassengers < 0 || p.MaxPassengers < p.MinPassengers {
		return fmt.Errorf("invalid passenger range [%d, %d]", p.MinPassengers, p.MaxPassengers)
	}
	a := p.ServiceArea
	if a.MinLat > a.MaxLat || a.MinLon > a.MaxLon {
		return fmt.Errorf("invalid service area %+v", a)
	}
	if p.IQRMultiplier < 0 {
		return fmt.Errorf("IQR multiplier must not be negative, got %v", p.IQRMultiplier)
	}
	if p.MaxSpeed <= 0 {
		return fmt.Errorf("max speed must be positive, got %v", p.MaxSpeed)
	}
	for _, h := range p.RushHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("rush hour %d out of range 0-23", h)
		}
	}
	if p.DistanceUnit != UnitMiles && p.DistanceUnit != UnitKilometers {
		return fmt.Errorf("unknown distance unit %q", p.DistanceUnit)
	}
	if p.EarthRadius <= 0 {
		return fmt.Errorf("earth radius must be positive, got %v", p.EarthRadius)
	}
	return nil
}

// WithRushHours returns a copy of the policy using the given hour set,
// sorted and de-duplicated
func (p Policy) WithRushHours(hours []int) Policy {
	seen := make(map[int]bool, len(hours))
	set := make([]int, 0, len(hours))
	for _, h := range hours {
		if !seen[h] {
			seen[h] = true
			set = append(set, h)
		}
	}
	sort.Ints(set)
	p.RushHours = set
	return p
}

// WithDistanceUnit returns a copy of the policy measuring distances in unit
func (p Policy) WithDistanceUnit(unit string) Policy {
	p.DistanceUnit = unit
	switch unit {
	case UnitKilometers:
		p.EarthRadius = spatial.EarthRadiusKm
	case UnitMiles:
		p.EarthRadius = spatial.EarthRadiusMiles
	}
	return p
}
