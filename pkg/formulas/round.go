package formulas

import "github.com/shopspring/decimal"

// Round rounds half away from zero to the given number of decimal places.
func Round(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// Round2 rounds to two decimal places.
func Round2(value float64) float64 {
	return Round(value, 2)
}

// Pct converts a fraction to a percentage (0.0523 -> 5.23).
func Pct(fraction float64) float64 {
	return fraction * 100
}
