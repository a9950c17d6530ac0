// Package rebalancing builds target-weight presets and turns them into buy/sell/hold
// recommendations.
package rebalancing

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/pkg/formulas"
	"github.com/rs/zerolog"
)

// PresetID names a target-weight strategy
type PresetID string

const (
	PresetEqual      PresetID = "equal"
	PresetCurrent    PresetID = "current"
	PresetDefensive  PresetID = "defensive"
	PresetAggressive PresetID = "aggressive"
	PresetAI         PresetID = "ai"
)

// PresetIDs lists the presets in display order.
var PresetIDs = []PresetID{PresetEqual, PresetCurrent, PresetDefensive, PresetAggressive, PresetAI}

const (
	defensiveShare  = 60.0
	aggressiveShare = 70.0

	// Heuristic floors
	minMultiplier      = 0.1
	minWeightMany      = 3.0
	minWeightFew       = 5.0
	manySymbolsCutoff  = 6
	DefaultHoldEpsilon = 0.1
)

// Action is a rebalancing instruction
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Preset is a named set of target weights in percent summing to exactly 100.0.
type Preset struct {
	ID            PresetID           `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	TargetWeights map[string]float64 `json:"targetWeights"`
}

// ActionItem is one symbol's move from its current to its target weight.
type ActionItem struct {
	Symbol        string  `json:"symbol"`
	Action        Action  `json:"action"`
	CurrentWeight float64 `json:"currentWeight"`
	TargetWeight  float64 `json:"targetWeight"`
	WeightDelta   float64 `json:"weightDelta"`
	Amount        float64 `json:"amount"`
	Rationale     string  `json:"rationale"`
}

// Recommendation applies one preset to the current portfolio.
type Recommendation struct {
	PresetID   PresetID        `json:"presetId"`
	PresetName string          `json:"presetName"`
	Currency   domain.Currency `json:"currency"`
	TotalValue float64         `json:"totalValue"`
	Actions    []ActionItem    `json:"actions"`
	// Held symbols without a current price, kept out of the weights
	Unpriced []string `json:"unpriced,omitempty"`
}

// Suggestions returns the non-hold actions, largest amount first.
func (r Recommendation) Suggestions() []ActionItem {
	out := make([]ActionItem, 0, len(r.Actions))
	for _, a := range r.Actions {
		if a.Action != ActionHold {
			out = append(out, a)
		}
	}
	return out
}

var presetNames = map[PresetID][2]string{
	PresetEqual:      {"Equal Weight", "Every holding gets the same share"},
	PresetCurrent:    {"Current Allocation", "Weights as they are today"},
	PresetDefensive:  {"Defensive", "60% to defensive sectors, funds and REITs, 40% to the rest"},
	PresetAggressive: {"Aggressive", "70% to growth sectors, 30% to the rest"},
	PresetAI:         {"AI Recommended", "Current weights tilted by trailing return and sector"},
}

// Service computes presets and recommendations
type Service struct {
	holdEpsilon float64
	log         zerolog.Logger
}

// NewService creates a new rebalancing service. holdEpsilon is the weight
// difference in percentage points below which a symbol is held.
func NewService(holdEpsilon float64, log zerolog.Logger) *Service {
	if holdEpsilon < 0 {
		holdEpsilon = DefaultHoldEpsilon
	}
	return &Service{
		holdEpsilon: holdEpsilon,
		log:         log.With().Str("service", "rebalancing").Logger(),
	}
}

// Presets returns every preset for the positions.
func (s *Service) Presets(positions []domain.Position, fx currency.Normalizer) []Preset {
	holdings := Aggregate(positions, fx)
	out := make([]Preset, 0, len(PresetIDs))
	for _, id := range PresetIDs {
		p, _ := s.build(id, holdings)
		out = append(out, p)
	}
	return out
}

// Preset returns one preset, an error for an unknown id.
func (s *Service) Preset(id PresetID, positions []domain.Position, fx currency.Normalizer) (Preset, error) {
	return s.build(id, Aggregate(positions, fx))
}

func (s *Service) build(id PresetID, holdings []Holding) (Preset, error) {
	names, ok := presetNames[id]
	if !ok {
		return Preset{}, fmt.Errorf("unknown rebalancing preset %q", id)
	}
	p := Preset{ID: id, Name: names[0], Description: names[1], TargetWeights: map[string]float64{}}
	if len(holdings) == 0 {
		return p, nil
	}

	var raw map[string]float64
	switch id {
	case PresetEqual:
		raw = equalWeights(holdings)
	case PresetCurrent:
		raw = currentWeights(holdings)
	case PresetDefensive:
		raw = groupSplit(holdings, func(h Holding) bool { return h.Defensive }, defensiveShare)
	case PresetAggressive:
		raw = groupSplit(holdings, func(h Holding) bool { return h.Growth }, aggressiveShare)
	case PresetAI:
		raw = aiWeights(holdings)
	}
	p.TargetWeights = RoundWeights(raw)
	return p, nil
}

func currentWeights(holdings []Holding) map[string]float64 {
	out := make(map[string]float64, len(holdings))
	proportional(holdings, 100, out)
	return out
}

// ReturnMultiplier maps a trailing return (percent) to a weight adjustment.
func ReturnMultiplier(returnRate float64) float64 {
	switch {
	case returnRate >= 20:
		return 0.35
	case returnRate >= 10:
		return 0.20
	case returnRate >= 0:
		return 0.05
	case returnRate >= -5:
		return -0.05
	default:
		return -0.15
	}
}

// SectorTilt is the small sector adjustment applied on top of the return bucket.
func SectorTilt(h Holding) float64 {
	switch {
	case h.Growth:
		return 0.05
	case h.Defensive:
		return 0.02
	default:
		return 0
	}
}

// MinimumWeight is the floor applied by the heuristic preset.
func MinimumWeight(symbols int) float64 {
	if symbols >= manySymbolsCutoff {
		return minWeightMany
	}
	return minWeightFew
}

func aiWeights(holdings []Holding) map[string]float64 {
	base := currentWeights(holdings)

	adjusted := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		multiplier := 1 + ReturnMultiplier(h.ReturnRate) + SectorTilt(h)
		adjusted[h.Symbol] = math.Max(minMultiplier, multiplier) * base[h.Symbol]
	}
	return applyFloor(normalize(adjusted), MinimumWeight(len(holdings)))
}

// Recommend compares current weights with the preset and sizes each move in the
// base currency: amount = (target - current) / 100 * total value.
func (s *Service) Recommend(positions []domain.Position, preset Preset, fx currency.Normalizer) Recommendation {
	holdings := Aggregate(positions, fx)
	current := currentWeights(holdings)
	total := 0.0
	for _, h := range holdings {
		total += h.Value
	}

	rec := Recommendation{
		PresetID:   preset.ID,
		PresetName: preset.Name,
		Currency:   fx.Base,
		TotalValue: formulas.Round2(total),
		Actions:    make([]ActionItem, 0, len(preset.TargetWeights)),
		Unpriced:   Unpriced(positions),
	}

	symbols := make([]string, 0, len(preset.TargetWeights))
	for symbol := range preset.TargetWeights {
		symbols = append(symbols, symbol)
	}
	for symbol := range current {
		if _, ok := preset.TargetWeights[symbol]; !ok {
			symbols = append(symbols, symbol)
		}
	}

	for _, symbol := range symbols {
		target := preset.TargetWeights[symbol]
		cur := current[symbol]
		delta := target - cur

		item := ActionItem{
			Symbol:        symbol,
			Action:        ActionHold,
			CurrentWeight: formulas.Round2(cur),
			TargetWeight:  target,
			WeightDelta:   formulas.Round2(delta),
			Amount:        formulas.Round2(delta / 100 * total),
		}
		switch {
		case delta > s.holdEpsilon:
			item.Action = ActionBuy
			item.Rationale = fmt.Sprintf("Underweight by %.1f%%p against the %s target", delta, preset.Name)
		case delta < -s.holdEpsilon:
			item.Action = ActionSell
			item.Rationale = fmt.Sprintf("Overweight by %.1f%%p against the %s target", -delta, preset.Name)
		default:
			item.Amount = 0
			item.Rationale = "Within tolerance of target"
		}
		rec.Actions = append(rec.Actions, item)
	}

	sort.Slice(rec.Actions, func(i, j int) bool {
		ai, aj := math.Abs(rec.Actions[i].Amount), math.Abs(rec.Actions[j].Amount)
		if ai != aj {
			return ai > aj
		}
		return rec.Actions[i].Symbol < rec.Actions[j].Symbol
	})

	s.log.Debug().
		Str("preset", string(preset.ID)).
		Int("actions", len(rec.Suggestions())).
		Msg("Built rebalancing recommendation")
	return rec
}
