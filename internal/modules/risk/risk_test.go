package risk

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolatility(t *testing.T) {
	assert.Equal(t, 0.0, Volatility(nil))
	assert.Equal(t, 0.0, Volatility([]float64{100}))
	assert.InDelta(t, 0.0, Volatility([]float64{100, 101, 102.01}), 1e-9, "constant returns have no spread")

	// returns 0.1 and -0.1: sample stdev = sqrt(0.02)
	got := Volatility([]float64{100, 110, 99})
	assert.InDelta(t, math.Sqrt(0.02)*math.Sqrt(252)*100, got, 1e-9)
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.5, 0.5, 0.5}, 0))
	assert.InDelta(t, 0.0, SharpeRatio([]float64{0.01, 0.03}, 0.02), 1e-12)
	assert.Greater(t, SharpeRatio([]float64{0.02, 0.04}, 0), 0.0)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"monotonic", []float64{1, 2, 3, 4}, 0},
		{"single dip", []float64{100, 80, 120}, -20},
		{"deeper second dip", []float64{100, 90, 200, 100}, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.values)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.LessOrEqual(t, got, 0.0)
		})
	}
}

func TestConcentrationAndDiversification(t *testing.T) {
	single := map[string]float64{"A": 100}
	assert.Equal(t, 10000.0, Concentration(single))
	assert.InDelta(t, 4.0, DiversificationScore(single, 1), 1e-9)

	four := map[string]float64{"A": 25, "B": 25, "C": 25, "D": 25}
	assert.Equal(t, 2500.0, Concentration(four))
	assert.InDelta(t, 0.75*80+20, DiversificationScore(four, 7), 1e-9)

	assert.Equal(t, 0.0, DiversificationScore(nil, 3))
	assert.Greater(t, DiversificationScore(four, 4), DiversificationScore(map[string]float64{"A": 70, "B": 30}, 4))
}

func TestWeights_ConvertsCurrencies(t *testing.T) {
	fx := currency.NewNormalizer(domain.CurrencyKRW, &currency.Rate{Base: domain.CurrencyUSD, Quote: domain.CurrencyKRW, Rate: 1000})
	positions := []domain.Position{
		{Symbol: "AAPL", Market: domain.MarketUS, Shares: 1, CurrentPrice: 100},
		{Symbol: "005930", Market: domain.MarketKR, Shares: 1, CurrentPrice: 300000},
		{Symbol: "EMPTY", Market: domain.MarketKR, Shares: 0, CurrentPrice: 1},
	}

	w := Weights(positions, fx)

	require.Len(t, w, 2)
	assert.InDelta(t, 25.0, w["AAPL"], 1e-9)
	assert.InDelta(t, 75.0, w["005930"], 1e-9)
	assert.Equal(t, "005930", SortedWeights(w)[0].Symbol)
}

func TestSectorCount(t *testing.T) {
	positions := []domain.Position{{Sector: "Tech"}, {Sector: "Tech"}, {Sector: ""}, {Sector: "Energy"}}
	assert.Equal(t, 2, SectorCount(positions))
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestCorrelationMatrix(t *testing.T) {
	series := map[string]prices.Series{
		"A": {{Date: day(1), Close: 10}, {Date: day(2), Close: 11}, {Date: day(3), Close: 10}, {Date: day(4), Close: 12}},
		"B": {{Date: day(1), Close: 20}, {Date: day(2), Close: 22}, {Date: day(3), Close: 20}, {Date: day(4), Close: 24}},
		"C": {{Date: day(1), Close: 5}, {Date: day(2), Close: 4.5}, {Date: day(3), Close: 5}, {Date: day(4), Close: 4}, {Date: day(5), Close: 4}},
	}

	c := CorrelationMatrix(series)

	require.False(t, c.Insufficient)
	assert.Equal(t, []string{"A", "B", "C"}, c.Symbols)
	assert.Equal(t, 3, c.Observations)
	ab, ok := c.Pair("A", "B")
	require.True(t, ok)
	assert.InDelta(t, 1.0, ab, 1e-9)
	ac, _ := c.Pair("A", "C")
	assert.Less(t, ac, 0.0)
	assert.Equal(t, 1.0, c.Matrix[2][2])
}

func TestCorrelationMatrix_Insufficient(t *testing.T) {
	series := map[string]prices.Series{
		"A": {{Date: day(1), Close: 10}, {Date: day(2), Close: 11}},
		"B": {{Date: day(1), Close: 20}, {Date: day(2), Close: 22}},
	}

	c := CorrelationMatrix(series)

	assert.True(t, c.Insufficient)
	assert.Nil(t, c.Matrix)
	_, ok := c.Pair("A", "B")
	assert.False(t, ok)

	assert.True(t, CorrelationMatrix(map[string]prices.Series{"A": series["A"]}).Insufficient)
}

func TestCalculator_Analyze(t *testing.T) {
	calc := NewCalculator(0.02, zerolog.New(nil).Level(zerolog.Disabled))
	fx := currency.NewNormalizer(domain.CurrencyUSD, nil)
	positions := []domain.Position{
		{Symbol: "A", Shares: 1, CurrentPrice: 50, Sector: "Tech"},
		{Symbol: "B", Shares: 1, CurrentPrice: 50, Sector: "Utilities"},
	}

	report := calc.Analyze([]float64{100, 110, 99, 120}, positions, fx)

	assert.Equal(t, 3, report.Observations)
	assert.Equal(t, -10.0, report.MaxDrawdown)
	assert.Equal(t, 5000.0, report.Concentration)
	assert.Equal(t, 2, report.SectorCount)
	assert.Greater(t, report.Volatility, 0.0)
	assert.NotNil(t, report.SortinoRatio)
	assert.Len(t, report.Weights, 2)
}
