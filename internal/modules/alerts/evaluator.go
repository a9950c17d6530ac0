package alerts

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/rebalancing"
	"github.com/aristath/folio/internal/modules/risk"
	"github.com/rs/zerolog"
)

// maxRebalancingSymbols is how many symbols the rebalancing alert names.
const maxRebalancingSymbols = 3

// Input is everything one evaluation looks at.
type Input struct {
	Positions []domain.Position
	FX        currency.Normalizer
	// Optional; no rebalancing alert when nil
	Rebalancing *rebalancing.Recommendation
	// Annualized portfolio volatility in percent; no volatility alert when nil
	Volatility *float64
	// Overall return in percent; derived from positions when nil
	OverallReturn *float64
	Advisor       []AdvisorItem
	Now           time.Time
}

// Evaluator runs the alert rules
type Evaluator struct {
	thresholds Thresholds
	log        zerolog.Logger
}

// NewEvaluator creates a new alert evaluator
func NewEvaluator(thresholds Thresholds, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		log:        log.With().Str("service", "alerts").Logger(),
	}
}

// Evaluate runs every rule independently and returns the merged alerts sorted by
// severity, then newest first, then id.
func (e *Evaluator) Evaluate(in Input) Response {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	var alerts []Alert
	alerts = append(alerts, e.emergency(in)...)
	alerts = append(alerts, e.important(in)...)
	alerts = append(alerts, e.weeklySummary(in))

	Sort(alerts)
	resp := Response{Alerts: alerts, Counts: CountBySeverity(alerts)}

	e.log.Debug().
		Int("emergency", resp.Counts.Emergency).
		Int("important", resp.Counts.Important).
		Msg("Evaluated alerts")
	return resp
}

// Sort orders alerts by severity, newest first, then id.
func Sort(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if ri, rj := severityRank[alerts[i].Severity], severityRank[alerts[j].Severity]; ri != rj {
			return ri < rj
		}
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
		}
		return alerts[i].ID < alerts[j].ID
	})
}

// CountBySeverity tallies alerts.
func CountBySeverity(alerts []Alert) Counts {
	var c Counts
	for _, a := range alerts {
		switch a.Severity {
		case SeverityEmergency:
			c.Emergency++
		case SeverityImportant:
			c.Important++
		case SeverityInfo:
			c.Info++
		}
	}
	c.Total = len(alerts)
	return c
}

func (e *Evaluator) emergency(in Input) []Alert {
	var out []Alert
	for _, p := range in.Positions {
		p = p.Derived()
		cur := p.ListingCurrency()
		measured := p.TotalInvested > 0 || p.ReturnRate != 0

		switch {
		case measured && p.ReturnRate <= e.thresholds.DropPct:
			out = append(out, Alert{
				ID:                alertID(KindDrop, p.Symbol),
				Kind:              KindDrop,
				Severity:          SeverityEmergency,
				Title:             fmt.Sprintf("%s down %.1f%%", p.Symbol, -p.ReturnRate),
				Description:       moveDescription(p, cur, "loss"),
				Symbol:            p.Symbol,
				RecommendedAction: "Review the position and consider a stop-loss",
				CreatedAt:         in.Now,
				Data:              map[string]any{"returnRate": p.ReturnRate, "profitLoss": p.ProfitLoss},
			})
		case measured && p.ReturnRate >= e.thresholds.SurgePct:
			out = append(out, Alert{
				ID:                alertID(KindSurge, p.Symbol),
				Kind:              KindSurge,
				Severity:          SeverityEmergency,
				Title:             fmt.Sprintf("%s up %.1f%%", p.Symbol, p.ReturnRate),
				Description:       moveDescription(p, cur, "gain"),
				Symbol:            p.Symbol,
				RecommendedAction: "Consider taking partial profit",
				CreatedAt:         in.Now,
				Data:              map[string]any{"returnRate": p.ReturnRate, "profitLoss": p.ProfitLoss},
			})
		}

		if p.TargetPrice != nil && p.CurrentPrice > 0 && p.CurrentPrice >= *p.TargetPrice {
			out = append(out, Alert{
				ID:                alertID(KindTargetReached, p.Symbol),
				Kind:              KindTargetReached,
				Severity:          SeverityEmergency,
				Title:             fmt.Sprintf("%s reached its target price", p.Symbol),
				Description:       fmt.Sprintf("%s trades at %s, at or above the target of %s.", p.Symbol, formatMoney(p.CurrentPrice, cur), formatMoney(*p.TargetPrice, cur)),
				Symbol:            p.Symbol,
				RecommendedAction: "Sell or raise the target",
				CreatedAt:         in.Now,
				Data:              map[string]any{"currentPrice": p.CurrentPrice, "targetPrice": *p.TargetPrice},
			})
		}
		if p.StopLossPrice != nil && p.CurrentPrice > 0 && p.CurrentPrice <= *p.StopLossPrice {
			out = append(out, Alert{
				ID:                alertID(KindStopLoss, p.Symbol),
				Kind:              KindStopLoss,
				Severity:          SeverityEmergency,
				Title:             fmt.Sprintf("%s hit its stop-loss", p.Symbol),
				Description:       fmt.Sprintf("%s trades at %s, at or below the stop-loss of %s.", p.Symbol, formatMoney(p.CurrentPrice, cur), formatMoney(*p.StopLossPrice, cur)),
				Symbol:            p.Symbol,
				RecommendedAction: "Sell to limit further losses",
				CreatedAt:         in.Now,
				Data:              map[string]any{"currentPrice": p.CurrentPrice, "stopLossPrice": *p.StopLossPrice},
			})
		}
	}
	return out
}

func (e *Evaluator) important(in Input) []Alert {
	var out []Alert

	if in.Rebalancing != nil {
		if suggestions := in.Rebalancing.Suggestions(); len(suggestions) > 0 {
			n := min(len(suggestions), maxRebalancingSymbols)
			symbols := make([]string, n)
			for i := range symbols {
				symbols[i] = suggestions[i].Symbol
			}
			out = append(out, Alert{
				ID:                alertID(KindRebalancing, string(in.Rebalancing.PresetID)),
				Kind:              KindRebalancing,
				Severity:          SeverityImportant,
				Title:             "Rebalancing suggested",
				Description:       fmt.Sprintf("%d holdings are off the %s target, led by %s.", len(suggestions), in.Rebalancing.PresetName, strings.Join(symbols, ", ")),
				RecommendedAction: "Run the rebalancing plan",
				CreatedAt:         in.Now,
				Data:              map[string]any{"presetId": in.Rebalancing.PresetID, "symbols": symbols},
			})
		}
	}

	if in.Volatility != nil && *in.Volatility > e.thresholds.VolatilityPct {
		out = append(out, Alert{
			ID:                alertID(KindVolatility, "portfolio"),
			Kind:              KindVolatility,
			Severity:          SeverityImportant,
			Title:             "High portfolio volatility",
			Description:       fmt.Sprintf("Annualized volatility is %.1f%%, above the %.0f%% limit.", *in.Volatility, e.thresholds.VolatilityPct),
			RecommendedAction: "Add defensive holdings",
			CreatedAt:         in.Now,
			Data:              map[string]any{"volatility": *in.Volatility},
		})
	}

	for _, w := range risk.SortedWeights(risk.Weights(in.Positions, in.FX)) {
		if w.Weight < e.thresholds.ConcentrationPct {
			break
		}
		out = append(out, Alert{
			ID:                alertID(KindConcentration, w.Symbol),
			Kind:              KindConcentration,
			Severity:          SeverityImportant,
			Title:             fmt.Sprintf("%s is %.1f%% of the portfolio", w.Symbol, w.Weight),
			Description:       fmt.Sprintf("A single holding at or above %.0f%% concentrates risk.", e.thresholds.ConcentrationPct),
			Symbol:            w.Symbol,
			RecommendedAction: "Trim the position or add to others",
			CreatedAt:         in.Now,
			Data:              map[string]any{"weight": w.Weight},
		})
	}

	for _, item := range in.Advisor {
		created := item.CreatedAt
		if created.IsZero() {
			created = in.Now
		}
		out = append(out, Alert{
			ID:                alertID(KindAdvisor, item.Symbol+":"+item.Title),
			Kind:              KindAdvisor,
			Severity:          SeverityImportant,
			Title:             item.Title,
			Description:       item.Description,
			Symbol:            item.Symbol,
			RecommendedAction: item.Action,
			CreatedAt:         created,
		})
	}
	return out
}

func (e *Evaluator) weeklySummary(in Input) Alert {
	overall := in.OverallReturn
	if overall == nil {
		overall = overallReturn(in.Positions, in.FX)
	}

	year, week := in.Now.ISOWeek()
	a := Alert{
		ID:        alertID(KindWeeklySummary, fmt.Sprintf("%d-W%02d", year, week)),
		Kind:      KindWeeklySummary,
		Severity:  SeverityInfo,
		Title:     "Weekly performance summary",
		CreatedAt: in.Now,
		Data:      map[string]any{"positions": len(in.Positions)},
	}
	if overall == nil {
		a.Description = "No invested amount to measure a return against yet."
		return a
	}
	a.Description = fmt.Sprintf("Overall return across %d positions is %+.2f%%.", len(in.Positions), *overall)
	a.Data["returnRate"] = *overall
	return a
}

// moveDescription words a drop or surge, falling back to the return rate when the
// position has no current value.
func moveDescription(p domain.Position, cur domain.Currency, word string) string {
	if p.TotalValue > 0 {
		return fmt.Sprintf("%s is at %s, a %s of %s against cost.", p.Symbol, formatMoney(p.TotalValue, cur), word, formatMoney(math.Abs(p.ProfitLoss), cur))
	}
	return fmt.Sprintf("%s reports a %.1f%% %s against cost.", p.Symbol, math.Abs(p.ReturnRate), word)
}

// overallReturn leaves out unpriced positions; their value is unknown, not zero.
func overallReturn(positions []domain.Position, fx currency.Normalizer) *float64 {
	value, invested := 0.0, 0.0
	for _, p := range positions {
		if !p.Priced() {
			continue
		}
		p = p.Derived()
		cur := p.ListingCurrency()
		value += fx.ToBase(p.TotalValue, cur)
		invested += fx.ToBase(p.TotalInvested, cur)
	}
	if invested <= 0 {
		return nil
	}
	r := (value/invested - 1) * 100
	return &r
}
