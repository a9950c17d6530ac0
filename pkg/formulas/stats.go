// Package formulas holds the numeric primitives shared by the analytics modules.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily return series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation. Fewer than two observations yield 0.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns x sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CalculateReturns converts values to period-over-period returns.
// Returns[i] = (Value[i+1] - Value[i]) / Value[i]; a non-positive prior value yields 0.
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1]
		}
	}

	return returns
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// Compound multiplies (1+r) over the returns, starting at 1.
func Compound(returns []float64) float64 {
	value := 1.0
	for _, r := range returns {
		value *= 1 + r
	}
	return value
}

// Annualize converts a total return over a number of periods into a per-year return,
// using periodsPerYear as the calendar convention. Returns 0 when periods <= 0 or the
// growth factor is not positive.
func Annualize(totalReturn float64, periods, periodsPerYear float64) float64 {
	growth := 1 + totalReturn
	if periods <= 0 || growth <= 0 {
		return 0
	}
	return math.Pow(growth, periodsPerYear/periods) - 1
}
