package benchmark

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/pkg/formulas"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result is the return of one benchmark since a date.
type Result struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	Currency     domain.Currency `json:"currency"`
	ReturnRate   *float64        `json:"returnRate"`
	ExcessReturn *float64        `json:"excessReturn,omitempty"`
	Since        time.Time       `json:"since"`
	Source       prices.Origin   `json:"source"`
	Note         string          `json:"note,omitempty"`
	Legs         []LegResult     `json:"legs,omitempty"`
}

// LegResult is the return of one constituent.
type LegResult struct {
	Symbol     string        `json:"symbol"`
	Weight     float64       `json:"weight"`
	ReturnRate *float64      `json:"returnRate"`
	Source     prices.Origin `json:"source"`
}

// LegReturn is the percentage change between the closes on or before since and
// on or before now. Nil when either close is missing or the start is not positive.
func LegReturn(series prices.Series, since, now time.Time) *float64 {
	start, ok := series.OnOrBefore(since)
	if !ok || start.Close <= 0 {
		return nil
	}
	end, ok := series.OnOrBefore(now)
	if !ok {
		return nil
	}
	r := (end.Close/start.Close - 1) * 100
	return &r
}

// Evaluate combines resolved leg lookups into a Result. Composite returns are the
// weighted sum of leg returns, with weights renormalized over the legs that have
// data. Lookups are keyed by leg symbol.
func Evaluate(target Target, lookups map[string]prices.Lookup, since, now time.Time) Result {
	res := Result{
		ID:       target.ID,
		Name:     target.Name,
		Symbol:   target.Symbol(),
		Currency: target.Currency,
		Since:    domain.Day(since),
		Source:   prices.OriginLive,
		Legs:     make([]LegResult, 0, len(target.Legs)),
	}

	var missing []string
	weighted, weightSum := 0.0, 0.0
	for _, leg := range target.Legs {
		lookup := lookups[leg.Symbol]
		lr := LegResult{Symbol: leg.Symbol, Weight: leg.Weight, Source: lookup.Origin}
		if lr.Source == "" {
			lr.Source = prices.OriginFallback
		}
		lr.ReturnRate = LegReturn(lookup.Series, since, now)
		if lr.ReturnRate == nil {
			lr.Source = prices.OriginFallback
			missing = append(missing, leg.Symbol)
		} else {
			weighted += leg.Weight * *lr.ReturnRate
			weightSum += leg.Weight
			if lr.Source == prices.OriginCache {
				res.Source = prices.OriginCache
			}
		}
		res.Legs = append(res.Legs, lr)
	}

	switch {
	case weightSum <= 0:
		res.Source = prices.OriginFallback
		res.Note = "no price data for " + strings.Join(missing, ", ")
	case len(missing) > 0:
		r := formulas.Round2(weighted / weightSum)
		res.ReturnRate = &r
		res.Note = fmt.Sprintf("partial data: %s unavailable, weights renormalized over remaining legs", strings.Join(missing, ", "))
	default:
		r := formulas.Round2(weighted / weightSum)
		res.ReturnRate = &r
	}
	if len(target.Legs) == 1 {
		res.Legs = nil
	}
	return res
}

// WithExcess sets ExcessReturn to portfolioReturn minus the benchmark return when both exist.
func (r Result) WithExcess(portfolioReturn *float64) Result {
	if portfolioReturn == nil || r.ReturnRate == nil {
		r.ExcessReturn = nil
		return r
	}
	excess := formulas.Round2(*portfolioReturn - *r.ReturnRate)
	r.ExcessReturn = &excess
	return r
}

// SeriesGetter resolves a price series, as prices.Store does.
type SeriesGetter interface {
	GetSeries(ctx context.Context, symbol string, market domain.Market, start time.Time) (prices.Lookup, error)
}

// Comparator fetches benchmark legs and evaluates them.
type Comparator struct {
	series SeriesGetter
	log    zerolog.Logger
}

// NewComparator creates a new benchmark comparator
func NewComparator(series SeriesGetter, log zerolog.Logger) *Comparator {
	return &Comparator{
		series: series,
		log:    log.With().Str("service", "benchmark").Logger(),
	}
}

// Compare fetches every distinct leg in parallel, then evaluates each target.
// portfolioReturn may be nil.
func (c *Comparator) Compare(ctx context.Context, targets []Target, since, now time.Time, portfolioReturn *float64) ([]Result, error) {
	lookups, err := c.fetchLegs(ctx, targets, since)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		res := Evaluate(t, lookups, since, now).WithExcess(portfolioReturn)
		if res.Note != "" {
			c.log.Warn().Str("benchmark", t.ID).Str("note", res.Note).Msg("Benchmark degraded")
		}
		results = append(results, res)
	}
	return results, nil
}

func (c *Comparator) fetchLegs(ctx context.Context, targets []Target, since time.Time) (map[string]prices.Lookup, error) {
	legs := make(map[string]domain.Market)
	for _, t := range targets {
		for _, l := range t.Legs {
			legs[l.Symbol] = l.Market
		}
	}

	var mu sync.Mutex
	lookups := make(map[string]prices.Lookup, len(legs))
	g, gctx := errgroup.WithContext(ctx)
	for symbol, market := range legs {
		g.Go(func() error {
			lookup, err := c.series.GetSeries(gctx, symbol, market, since)
			if err != nil {
				return fmt.Errorf("benchmark leg %s: %w", symbol, err)
			}
			mu.Lock()
			lookups[symbol] = lookup
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lookups, nil
}
