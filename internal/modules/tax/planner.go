// Package tax plans tax-loss harvesting across a position snapshot.
package tax

import (
	"math"
	"sort"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/pkg/formulas"
	"github.com/rs/zerolog"
)

// Action is the bucket a position falls into
type Action string

const (
	ActionHarvestLoss Action = "harvest-loss"
	ActionOffsetGain  Action = "offset-gain"
	ActionMonitor     Action = "monitor"
)

var actionRank = map[Action]int{
	ActionHarvestLoss: 0,
	ActionOffsetGain:  1,
	ActionMonitor:     2,
}

// Candidate is one position's place in the plan. Money is in the base currency.
type Candidate struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name,omitempty"`
	Currency      domain.Currency `json:"currency"`
	ProfitLoss    float64         `json:"profitLoss"`
	ReturnRate    float64         `json:"returnRate"`
	HarvestAmount float64         `json:"harvestAmount"`
	Action        Action          `json:"action"`
}

// Summary totals the plan.
type Summary struct {
	TotalUnrealizedGain float64 `json:"totalUnrealizedGain"`
	// Positive magnitude
	TotalUnrealizedLoss float64         `json:"totalUnrealizedLoss"`
	HarvestTarget       float64         `json:"harvestTarget"`
	HarvestAchieved     float64         `json:"harvestAchieved"`
	RemainingTarget     float64         `json:"remainingTarget"`
	TaxRate             float64         `json:"taxRate"`
	EstimatedTaxSavings float64         `json:"estimatedTaxSavings"`
	Currency            domain.Currency `json:"currency"`
}

// Response is the full tax optimization result.
type Response struct {
	Summary    Summary     `json:"summary"`
	Candidates []Candidate `json:"candidates"`
}

// Planner allocates harvest targets
type Planner struct {
	defaultTaxRate float64
	log            zerolog.Logger
}

// NewPlanner creates a planner. defaultTaxRate (percent) is used when a request
// does not give one.
func NewPlanner(defaultTaxRate float64, log zerolog.Logger) *Planner {
	return &Planner{
		defaultTaxRate: defaultTaxRate,
		log:            log.With().Str("service", "tax").Logger(),
	}
}

// Plan greedily harvests target (base currency) from the largest losses first.
// taxRate is a percentage; zero or negative falls back to the planner default.
func (p *Planner) Plan(positions []domain.Position, target, taxRate float64, fx currency.Normalizer) Response {
	if taxRate <= 0 {
		taxRate = p.defaultTaxRate
	}
	target = math.Max(target, 0)

	var losses, gains, flat []Candidate
	summary := Summary{HarvestTarget: target, TaxRate: taxRate, Currency: fx.Base}
	for _, pos := range positions {
		pos = pos.Derived()
		c := Candidate{
			Symbol:     pos.Symbol,
			Name:       pos.Name,
			Currency:   fx.Base,
			ProfitLoss: fx.ToBase(pos.ProfitLoss, pos.ListingCurrency()),
			ReturnRate: formulas.Round2(pos.ReturnRate),
			Action:     ActionMonitor,
		}
		switch {
		case c.ProfitLoss < 0:
			summary.TotalUnrealizedLoss += -c.ProfitLoss
			losses = append(losses, c)
		case c.ProfitLoss > 0:
			summary.TotalUnrealizedGain += c.ProfitLoss
			c.Action = ActionOffsetGain
			gains = append(gains, c)
		default:
			flat = append(flat, c)
		}
	}

	sortByMagnitude(losses)
	remaining := target
	for i := range losses {
		if remaining <= 0 {
			break
		}
		take := math.Min(remaining, -losses[i].ProfitLoss)
		losses[i].HarvestAmount = take
		losses[i].Action = ActionHarvestLoss
		remaining -= take
		summary.HarvestAchieved += take
	}

	summary.RemainingTarget = math.Max(remaining, 0)
	summary.EstimatedTaxSavings = summary.HarvestAchieved * taxRate / 100

	candidates := make([]Candidate, 0, len(positions))
	candidates = append(candidates, losses...)
	candidates = append(candidates, gains...)
	candidates = append(candidates, flat...)
	SortForDisplay(candidates)

	if fx.Degraded() {
		p.log.Warn().Msg("Planning without an exchange rate, mixed-currency totals are unconverted")
	}
	return Response{Summary: summary.rounded(), Candidates: roundCandidates(candidates)}
}

// SortForDisplay orders harvest-loss, offset-gain, then monitor; each bucket by
// descending absolute profit/loss, ties by symbol.
func SortForDisplay(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if ri, rj := actionRank[cs[i].Action], actionRank[cs[j].Action]; ri != rj {
			return ri < rj
		}
		ai, aj := math.Abs(cs[i].ProfitLoss), math.Abs(cs[j].ProfitLoss)
		if ai != aj {
			return ai > aj
		}
		return cs[i].Symbol < cs[j].Symbol
	})
}

func sortByMagnitude(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		ai, aj := math.Abs(cs[i].ProfitLoss), math.Abs(cs[j].ProfitLoss)
		if ai != aj {
			return ai > aj
		}
		return cs[i].Symbol < cs[j].Symbol
	})
}

func (s Summary) rounded() Summary {
	s.TotalUnrealizedGain = formulas.Round2(s.TotalUnrealizedGain)
	s.TotalUnrealizedLoss = formulas.Round2(s.TotalUnrealizedLoss)
	s.HarvestTarget = formulas.Round2(s.HarvestTarget)
	s.HarvestAchieved = formulas.Round2(s.HarvestAchieved)
	s.RemainingTarget = formulas.Round2(s.RemainingTarget)
	s.EstimatedTaxSavings = formulas.Round2(s.EstimatedTaxSavings)
	return s
}

func roundCandidates(cs []Candidate) []Candidate {
	for i := range cs {
		cs[i].ProfitLoss = formulas.Round2(cs[i].ProfitLoss)
		cs[i].HarvestAmount = formulas.Round2(cs[i].HarvestAmount)
	}
	return cs
}
