// Package risk computes volatility, Sharpe, drawdown, concentration and correlation
// metrics over value series and position snapshots.
package risk

import (
	"math"
	"sort"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/pkg/formulas"
)

// Volatility is the annualized standard deviation of period-over-period returns of
// values, as a percentage. Series shorter than 2 give 0.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return formulas.AnnualizedVolatility(formulas.CalculateReturns(values)) * 100
}

// SharpeRatio is (mean(returns) - riskFree) / stdDev(returns); 0 when stdDev is 0.
// riskFree is in the periodicity of returns.
func SharpeRatio(returns []float64, riskFree float64) float64 {
	return formulas.SharpeRatio(returns, riskFree)
}

// MaxDrawdown is the deepest peak-to-trough decline of values as a percentage (<= 0).
func MaxDrawdown(values []float64) float64 {
	return formulas.CalculateMaxDrawdown(values) * 100
}

// Concentration is the Herfindahl-Hirschman index over percentage weights:
// 10000 for a single holding, 10000/N for N equal holdings.
func Concentration(weights map[string]float64) float64 {
	hhi := 0.0
	for _, w := range weights {
		hhi += w * w
	}
	return hhi
}

// maxCountedSectors caps the sector contribution to the diversification score.
const maxCountedSectors = 5

// DiversificationScore maps concentration and sector breadth onto 0..100, higher
// meaning more spread: 80 points from (1 - HHI/10000), 20 from up to five sectors.
func DiversificationScore(weights map[string]float64, sectorCount int) float64 {
	if len(weights) == 0 {
		return 0
	}
	spread := 1 - Concentration(weights)/10000
	sectors := math.Min(float64(sectorCount), maxCountedSectors) / maxCountedSectors
	if sectors < 0 {
		sectors = 0
	}

	score := spread*80 + sectors*20
	return math.Max(0, math.Min(100, score))
}

// Weights returns each symbol's share of total base-currency value as a percentage.
// An empty or zero-valued portfolio gives an empty map.
func Weights(positions []domain.Position, fx currency.Normalizer) map[string]float64 {
	values := make(map[string]float64, len(positions))
	total := 0.0
	for _, p := range positions {
		v := fx.ToBase(p.Shares*p.CurrentPrice, p.ListingCurrency())
		if v <= 0 {
			continue
		}
		values[p.Symbol] += v
		total += v
	}

	weights := make(map[string]float64, len(values))
	if total <= 0 {
		return weights
	}
	for symbol, v := range values {
		weights[symbol] = v / total * 100
	}
	return weights
}

// SectorCount counts distinct non-empty sectors.
func SectorCount(positions []domain.Position) int {
	seen := make(map[string]struct{})
	for _, p := range positions {
		if p.Sector == "" {
			continue
		}
		seen[p.Sector] = struct{}{}
	}
	return len(seen)
}

// WeightEntry is one row of a sorted weight table
type WeightEntry struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
}

// SortedWeights orders weights descending, ties by symbol.
func SortedWeights(weights map[string]float64) []WeightEntry {
	out := make([]WeightEntry, 0, len(weights))
	for s, w := range weights {
		out = append(out, WeightEntry{Symbol: s, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
