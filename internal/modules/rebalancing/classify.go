package rebalancing

import (
	"strings"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
)

var defensiveSectors = []string{"utilities", "consumer staples", "staples", "health", "real estate"}
var defensiveAssetTypes = []string{"fund", "etf", "bond", "reit"}
var growthSectors = []string{"tech", "information technology", "communication", "consumer discretionary", "semiconductor"}

// IsDefensive reports whether a position belongs to the defensive group: defensive
// sectors, funds and REITs.
func IsDefensive(sector, assetType string) bool {
	return containsAny(sector, defensiveSectors) || containsAny(assetType, defensiveAssetTypes)
}

// IsGrowth reports whether a position's sector is a growth sector.
func IsGrowth(sector string) bool {
	return containsAny(sector, growthSectors)
}

func containsAny(s string, needles []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Holding is the per-symbol aggregate the presets are computed from.
type Holding struct {
	Symbol     string
	Value      float64
	Sector     string
	AssetType  string
	ReturnRate float64
	Defensive  bool
	Growth     bool
}

// Aggregate converts positions into holdings valued in the base currency, merging
// positions that share a symbol. Holdings come back sorted by symbol. Unpriced
// positions are left out; see Unpriced.
func Aggregate(positions []domain.Position, fx currency.Normalizer) []Holding {
	bySymbol := make(map[string]*Holding)
	invested := make(map[string]float64)
	order := make([]string, 0, len(positions))

	for _, p := range positions {
		if !p.Priced() {
			continue
		}
		h, ok := bySymbol[p.Symbol]
		if !ok {
			h = &Holding{Symbol: p.Symbol, Sector: p.Sector, AssetType: p.AssetType}
			bySymbol[p.Symbol] = h
			order = append(order, p.Symbol)
		}
		cur := p.ListingCurrency()
		h.Value += fx.ToBase(p.Shares*p.CurrentPrice, cur)
		inv := p.TotalInvested
		if inv == 0 {
			inv = p.Shares * p.AveragePrice
		}
		invested[p.Symbol] += fx.ToBase(inv, cur)
	}

	out := make([]Holding, 0, len(order))
	for _, symbol := range order {
		h := bySymbol[symbol]
		if inv := invested[symbol]; inv > 0 {
			h.ReturnRate = (h.Value/inv - 1) * 100
		}
		h.Defensive = IsDefensive(h.Sector, h.AssetType)
		h.Growth = IsGrowth(h.Sector)
		out = append(out, *h)
	}
	sortHoldings(out)
	return out
}

// Unpriced lists the symbols Aggregate leaves out for lack of a current price.
func Unpriced(positions []domain.Position) []string {
	var out []string
	for _, p := range positions {
		if !p.Priced() {
			out = append(out, p.Symbol)
		}
	}
	return out
}
