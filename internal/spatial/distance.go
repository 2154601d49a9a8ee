package spatial

import (
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMiles = 3959.0 // Earth's mean radius in miles
	EarthRadiusKm    = 6371.0 // Earth's mean radius in kilometers

	MaxCellLevel = s2.MaxLevel
)

// GreatCircleDistance calculates the great-circle distance between two points
// given in degrees, expressed in the unit of radius.
//
// s2 evaluates the haversine formula as 2·atan2(√a, √max(0, 1−a)), which is
// 2·asin(√a) with a clamped to [0,1], so coincident and antipodal points stay
// finite. Always returns a finite value >= 0 for finite inputs.
func GreatCircleDistance(lat1, lon1, lat2, lon2, radius float64) float64 {
	// Order the endpoints so d(a,b) and d(b,a) are bitwise equal
	if lat2 < lat1 || (lat2 == lat1 && lon2 < lon1) {
		lat1, lon1, lat2, lon2 = lat2, lon2, lat1, lon1
	}

	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * radius
}

// GreatCircleDistanceMiles calculates the haversine distance in miles
func GreatCircleDistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return GreatCircleDistance(lat1, lon1, lat2, lon2, EarthRadiusMiles)
}

// CellCenter snaps a point to the centre of its s2 cell at the given level
// (0-30). Used to bin heatmap points.
func CellCenter(lat, lon float64, level int) (float64, float64) {
	if level < 0 {
		level = 0
	}
	if level > MaxCellLevel {
		level = MaxCellLevel
	}

	id := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(level)
	center := id.LatLng()
	return center.Lat.Degrees(), center.Lng.Degrees()
}
