// Package benchmark compares portfolio performance against market indices and
// blended baskets.
package benchmark

import (
	"strings"

	"github.com/aristath/folio/internal/domain"
)

// Leg is one constituent of a benchmark with its fixed weight.
type Leg struct {
	Symbol string        `json:"symbol"`
	Market domain.Market `json:"market"`
	Weight float64       `json:"weight"`
}

// Target is a benchmark: a single index, or a fixed-weight combination.
type Target struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Currency domain.Currency `json:"currency"`
	Legs     []Leg           `json:"legs"`
}

// Symbol is the display symbol, constituents joined by "+" for composites.
func (t Target) Symbol() string {
	symbols := make([]string, len(t.Legs))
	for i, l := range t.Legs {
		symbols[i] = l.Symbol
	}
	return strings.Join(symbols, "+")
}

// DefaultTargets are the benchmarks reported when the caller asks for none.
var DefaultTargets = []Target{
	{ID: "kospi", Name: "KOSPI", Currency: domain.CurrencyKRW, Legs: []Leg{{Symbol: "^KS11", Market: domain.MarketKR, Weight: 1}}},
	{ID: "kosdaq", Name: "KOSDAQ", Currency: domain.CurrencyKRW, Legs: []Leg{{Symbol: "^KQ11", Market: domain.MarketKR, Weight: 1}}},
	{ID: "sp500", Name: "S&P 500", Currency: domain.CurrencyUSD, Legs: []Leg{{Symbol: "^GSPC", Market: domain.MarketUS, Weight: 1}}},
	{ID: "nasdaq", Name: "NASDAQ", Currency: domain.CurrencyUSD, Legs: []Leg{{Symbol: "^IXIC", Market: domain.MarketUS, Weight: 1}}},
	{ID: "60-40", Name: "60/40 Stocks/Bonds", Currency: domain.CurrencyUSD, Legs: []Leg{
		{Symbol: "SPY", Market: domain.MarketUS, Weight: 0.6},
		{Symbol: "AGG", Market: domain.MarketUS, Weight: 0.4},
	}},
}

// FindTargets returns the default targets with the given ids, in the order given.
// Unknown ids are skipped; no ids means all defaults.
func FindTargets(ids []string) []Target {
	if len(ids) == 0 {
		return DefaultTargets
	}
	out := make([]Target, 0, len(ids))
	for _, id := range ids {
		for _, t := range DefaultTargets {
			if strings.EqualFold(t.ID, id) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
