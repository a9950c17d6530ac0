// Package scenario projects the portfolio under uniform price and FX shocks.
package scenario

import (
	"fmt"
	"strings"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/pkg/formulas"
	"github.com/rs/zerolog"
)

// PresetID names a scenario
type PresetID string

const (
	PresetBullish  PresetID = "bullish"
	PresetBearish  PresetID = "bearish"
	PresetVolatile PresetID = "volatile"
	PresetCustom   PresetID = "custom"
)

// Config is a scenario request. Shifts are percentages.
type Config struct {
	Preset                 PresetID `json:"preset"`
	MarketShiftPct         float64  `json:"marketShiftPct"`
	USDShiftPct            float64  `json:"usdShiftPct"`
	AdditionalContribution float64  `json:"additionalContribution"`
}

var presetShifts = map[PresetID][2]float64{
	PresetBullish:  {10, 2},
	PresetBearish:  {-15, -3},
	PresetVolatile: {-8, 5},
}

// Resolve fills the shifts of a named preset. Custom keeps the caller's values.
func Resolve(cfg Config) (Config, error) {
	id := PresetID(strings.ToLower(strings.TrimSpace(string(cfg.Preset))))
	if id == "" {
		id = PresetCustom
	}
	cfg.Preset = id
	if id == PresetCustom {
		return cfg, nil
	}
	shifts, ok := presetShifts[id]
	if !ok {
		return Config{}, fmt.Errorf("unknown scenario preset %q", cfg.Preset)
	}
	cfg.MarketShiftPct, cfg.USDShiftPct = shifts[0], shifts[1]
	return cfg, nil
}

// PositionProjection is one position under the scenario, in its listing currency.
type PositionProjection struct {
	Symbol              string          `json:"symbol"`
	Currency            domain.Currency `json:"currency"`
	Shares              float64         `json:"shares"`
	CurrentPrice        float64         `json:"currentPrice"`
	ProjectedPrice      float64         `json:"projectedPrice"`
	CurrentValue        float64         `json:"currentValue"`
	ProjectedValue      float64         `json:"projectedValue"`
	Invested            float64         `json:"invested"`
	ProjectedProfitLoss float64         `json:"projectedProfitLoss"`
	ProjectedReturnRate float64         `json:"projectedReturnRate"`
	// Without a current price nothing is projected and the position stays out of the totals.
	Unpriced bool `json:"unpriced,omitempty"`
}

// Response is the projected portfolio. Totals are in Currency.
type Response struct {
	Config              Config               `json:"config"`
	Currency            domain.Currency      `json:"currency"`
	CurrentValue        float64              `json:"currentValue"`
	ProjectedValue      float64              `json:"projectedValue"`
	TotalInvested       float64              `json:"totalInvested"`
	ProjectedProfitLoss float64              `json:"projectedProfitLoss"`
	ProjectedReturnRate float64              `json:"projectedReturnRate"`
	ValueChange         float64              `json:"valueChange"`
	ValueChangePct      float64              `json:"valueChangePct"`
	FXDegraded          bool                 `json:"fxDegraded,omitempty"`
	Unpriced            []string             `json:"unpriced,omitempty"`
	Positions           []PositionProjection `json:"positions"`
}

// Projector applies scenarios
type Projector struct {
	log zerolog.Logger
}

// NewProjector creates a new scenario projector
func NewProjector(log zerolog.Logger) *Projector {
	return &Projector{log: log.With().Str("service", "scenario").Logger()}
}

// Project applies cfg to every position and sums the results in the base currency.
func (p *Projector) Project(positions []domain.Position, cfg Config, fx currency.Normalizer) (Response, error) {
	cfg, err := Resolve(cfg)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Config:     cfg,
		Currency:   fx.Base,
		FXDegraded: fx.Degraded(),
		Positions:  make([]PositionProjection, 0, len(positions)),
	}
	for _, pos := range positions {
		proj := ProjectPosition(pos, cfg)
		resp.Positions = append(resp.Positions, proj)
		if proj.Unpriced {
			resp.Unpriced = append(resp.Unpriced, proj.Symbol)
			continue
		}

		resp.CurrentValue += fx.ToBase(proj.CurrentValue, proj.Currency)
		resp.ProjectedValue += fx.ToBase(proj.ProjectedValue, proj.Currency)
		resp.TotalInvested += fx.ToBase(proj.Invested, proj.Currency)
	}
	resp.ProjectedValue += cfg.AdditionalContribution

	resp.ProjectedProfitLoss = resp.ProjectedValue - resp.TotalInvested - cfg.AdditionalContribution
	resp.ProjectedReturnRate = changePct(resp.ProjectedProfitLoss, resp.TotalInvested)
	resp.ValueChange = resp.ProjectedValue - resp.CurrentValue
	resp.ValueChangePct = changePct(resp.ValueChange, resp.CurrentValue)

	p.log.Debug().
		Str("preset", string(cfg.Preset)).
		Float64("market_shift", cfg.MarketShiftPct).
		Float64("usd_shift", cfg.USDShiftPct).
		Int("positions", len(positions)).
		Strs("unpriced", resp.Unpriced).
		Msg("Projected scenario")
	return resp, nil
}

// ProjectPosition moves one position's price by the market shift, and by the USD
// shift when it is USD-denominated.
func ProjectPosition(pos domain.Position, cfg Config) PositionProjection {
	cur := pos.ListingCurrency()
	if !pos.Priced() {
		return PositionProjection{Symbol: pos.Symbol, Currency: cur, Shares: pos.Shares, Unpriced: true}
	}
	factor := 1 + cfg.MarketShiftPct/100
	if cur == domain.CurrencyUSD {
		factor *= 1 + cfg.USDShiftPct/100
	}

	proj := PositionProjection{
		Symbol:         pos.Symbol,
		Currency:       cur,
		Shares:         pos.Shares,
		CurrentPrice:   pos.CurrentPrice,
		ProjectedPrice: pos.CurrentPrice * factor,
		CurrentValue:   pos.Shares * pos.CurrentPrice,
	}
	proj.ProjectedValue = pos.Shares * proj.ProjectedPrice

	switch {
	case pos.TotalInvested > 0:
		proj.Invested = pos.TotalInvested
	case pos.AveragePrice > 0:
		proj.Invested = pos.Shares * pos.AveragePrice
	default:
		proj.Invested = proj.CurrentValue
	}
	proj.ProjectedProfitLoss = proj.ProjectedValue - proj.Invested
	proj.ProjectedReturnRate = changePct(proj.ProjectedProfitLoss, proj.Invested)
	return proj
}

func changePct(change, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return formulas.Pct(change / base)
}
