package stats

import (
	"math"
	"sort"
)

// DefaultIQRMultiplier is the Tukey fence multiplier
const DefaultIQRMultiplier = 1.5

// Quantile calculates the q-th quantile (0 <= q <= 1).
//
// The rule is linear interpolation between closest ranks on the sorted
// values: index = q·(n−1), result = s[⌊index⌋]·(1−w) + s[⌈index⌉]·w with
// w = index − ⌊index⌋. This matches numpy/pandas "linear" and must not change:
// different rules produce different outlier bounds and retained row counts.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	n := float64(len(sorted))
	index := q * (n - 1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	// Linear interpolation
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Percentile calculates the p-th percentile (0-100)
func Percentile(values []float64, p float64) float64 {
	return Quantile(values, p/100.0)
}

// Quartiles returns the three quartiles (Q1, Q2/median, Q3)
func Quartiles(values []float64) (q1, q2, q3 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	// Sort once for all three
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return quantileSorted(sorted, 0.25), quantileSorted(sorted, 0.5), quantileSorted(sorted, 0.75)
}

// IQR calculates the interquartile range (Q3 - Q1)
func IQR(values []float64) float64 {
	q1, _, q3 := Quartiles(values)
	return q3 - q1
}

// OutliersBounds calculates the Tukey fences Q1 − k·IQR and Q3 + k·IQR
func OutliersBounds(values []float64, multiplier float64) (lowerBound, upperBound float64) {
	q1, _, q3 := Quartiles(values)
	iqr := q3 - q1

	lowerBound = q1 - multiplier*iqr
	upperBound = q3 + multiplier*iqr

	return
}

// IQRBounds calculates outlier fences for a non-negative quantity such as a
// duration. The lower fence is clamped to a minimum of 0. Empty input yields
// (0, 0).
func IQRBounds(values []float64, multiplier float64) (lower, upper float64) {
	lower, upper = OutliersBounds(values, multiplier)
	if lower < 0 {
		lower = 0
	}
	return lower, upper
}

// CountOutside returns how many values fall outside [lower, upper]
func CountOutside(values []float64, lower, upper float64) int {
	count := 0
	for _, v := range values {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}
