package formulas

import "math"

// SharpeRatio is (mean - riskFree) / stdDev over periodic returns.
// riskFree must be in the same periodicity as returns. Zero deviation yields 0.
func SharpeRatio(returns []float64, riskFree float64) float64 {
	stdDev := StdDev(returns)
	if stdDev == 0 {
		return 0
	}
	return (Mean(returns) - riskFree) / stdDev
}

// AnnualizedSharpe computes the Sharpe ratio of daily returns against an annual
// risk-free rate and scales it by sqrt(periodsPerYear).
func AnnualizedSharpe(returns []float64, annualRiskFree float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		return 0
	}
	periodic := annualRiskFree / float64(periodsPerYear)
	return SharpeRatio(returns, periodic) * math.Sqrt(float64(periodsPerYear))
}

// CalculateSortinoRatio calculates the Sortino Ratio (downside deviation version of Sharpe)
// Only returns below the periodic target count towards the deviation. Nil when there is
// no downside observation.
func CalculateSortinoRatio(returns []float64, riskFreeRate float64, targetReturn float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	periodicMAR := targetReturn / float64(periodsPerYear)

	var downsideSquaredSum float64
	downsideCount := 0
	for _, ret := range returns {
		if ret < periodicMAR {
			deviation := ret - periodicMAR
			downsideSquaredSum += deviation * deviation
			downsideCount++
		}
	}
	if downsideCount == 0 {
		return nil
	}

	downsideDeviation := math.Sqrt(downsideSquaredSum / float64(downsideCount))
	if downsideDeviation == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sortino := (Mean(returns) - periodicRiskFree) / downsideDeviation * math.Sqrt(float64(periodsPerYear))
	return &sortino
}
