package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected []float64
	}{
		{"empty", nil, []float64{}},
		{"single value", []float64{100}, []float64{}},
		{"simple", []float64{100, 110, 99}, []float64{0.10, -0.10}},
		{"zero prior value", []float64{0, 50, 100}, []float64{0, 1}},
		{"negative prior value", []float64{-10, 5}, []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReturns(tt.values)
			assert.InDeltaSlice(t, tt.expected, got, 1e-12)
		})
	}
}

func TestStdDev_ShortSeries(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{0.5}))
	assert.InDelta(t, math.Sqrt(0.5), StdDev([]float64{1, 2}), 1e-12)
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	expected := StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, expected, AnnualizedVolatility(returns), 1e-12)
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.02}))
}

func TestCompound(t *testing.T) {
	assert.InDelta(t, 1.019894, Compound([]float64{0.01, -0.02, 0.03}), 1e-9)
	assert.Equal(t, 1.0, Compound(nil))
}

func TestAnnualize(t *testing.T) {
	// 10% over half a year of trading days doubles up to 21% a year
	assert.InDelta(t, 0.21, Annualize(0.10, 126, 252), 1e-9)
	assert.Equal(t, 0.0, Annualize(0.10, 0, 252))
	assert.Equal(t, 0.0, Annualize(-1.5, 10, 252))
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, Correlation(x, []float64{2, 4, 6, 8}), 1e-12)
	assert.InDelta(t, -1.0, Correlation(x, []float64{8, 6, 4, 2}), 1e-12)
	assert.Equal(t, 0.0, Correlation(x, []float64{1, 2}))
	assert.Equal(t, 0.0, Correlation(x, []float64{5, 5, 5, 5}))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.99, Round2(1.9894))
	assert.Equal(t, -2.35, Round2(-2.345))
	assert.Equal(t, 33.3, Round(33.333333, 1))
}
