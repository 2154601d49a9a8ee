package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile_LinearInterpolation(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
		{-1, 1},
		{2, 4},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(values, tt.q), 1e-12, "q=%v", tt.q)
	}

	// input is left untouched
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
}

func TestPercentileAndIQR(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	assert.InDelta(t, 2.5, Percentile(values, 50), 1e-12)
	assert.InDelta(t, 3.25, Percentile(values, 75), 1e-12)
	assert.InDelta(t, 1.5, IQR(values), 1e-12)
	assert.Equal(t, 0.0, IQR([]float64{10, 10, 10, 10, 100}))
}

func TestQuantile_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Quantile(nil, 0.5))
	q1, q2, q3 := Quartiles(nil)
	assert.Equal(t, [3]float64{0, 0, 0}, [3]float64{q1, q2, q3})
}

func TestIQRBounds_DegenerateFixture(t *testing.T) {
	lower, upper := IQRBounds([]float64{10, 10, 10, 10, 100}, 1.5)

	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 10.0, upper)
}

func TestIQRBounds(t *testing.T) {
	values := []float64{100, 200, 300, 400, 500, 600, 700, 800, 900}
	// Q1 = 300, Q3 = 700, IQR = 400
	lower, upper := IQRBounds(values, 1.5)
	assert.Equal(t, 0.0, lower, "negative fence is clamped")
	assert.Equal(t, 1300.0, upper)

	values = []float64{1000, 1010, 1020, 1030, 1040}
	// Q1 = 1010, Q3 = 1030, IQR = 20
	lower, upper = IQRBounds(values, 1.5)
	assert.Equal(t, 980.0, lower)
	assert.Equal(t, 1060.0, upper)

	lower, upper = IQRBounds(values, 3)
	assert.Equal(t, 950.0, lower)
	assert.Equal(t, 1090.0, upper)
}

func TestOutliersBounds_Unclamped(t *testing.T) {
	lower, upper := OutliersBounds([]float64{100, 200, 300, 400, 500, 600, 700, 800, 900}, 1.5)
	assert.Equal(t, -300.0, lower)
	assert.Equal(t, 1300.0, upper)
}

func TestCountOutside(t *testing.T) {
	assert.Equal(t, 1, CountOutside([]float64{10, 10, 10, 10, 100}, 0, 10))
	assert.Equal(t, 0, CountOutside(nil, 0, 10))
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.138089935, s.StdDev, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 4.0, s.Q1)
	assert.Equal(t, 4.5, s.Median)
	assert.InDelta(t, 5.5, s.Q3, 1e-12)
	assert.Equal(t, 9.0, s.Max)

	assert.Equal(t, Summary{}, Describe(nil))
}
