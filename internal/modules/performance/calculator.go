package performance

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/rs/zerolog"
)

// daysPerYear is the calendar-day convention used for period annualization.
const daysPerYear = 365.0

// Period is the performance of the portfolio over one window, in the base currency.
type Period struct {
	ID               PeriodID        `json:"id"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	StartValue       float64         `json:"startValue"`
	EndValue         float64         `json:"endValue"`
	AbsoluteChange   float64         `json:"absoluteChange"`
	ReturnRate       *float64        `json:"returnRate"`
	AnnualizedReturn *float64        `json:"annualizedReturn"`
	Currency         domain.Currency `json:"currency"`
	// Symbols held at the start whose price could not be resolved.
	UnpricedSymbols []string `json:"unpricedSymbols,omitempty"`
}

// Input is the resolved data one calculation runs over.
type Input struct {
	Positions    []domain.Position
	Transactions []domain.Transaction
	// Series keyed by position symbol
	Series map[string]prices.Series
	FX     currency.Normalizer
	Now    time.Time
}

// Calculator computes period performance
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a new performance calculator
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{
		log: log.With().Str("service", "performance").Logger(),
	}
}

// Calculate returns one Period per window. A negative reconstructed share count
// aborts the calculation with ledger.ErrNegativeShares.
func (c *Calculator) Calculate(in Input) (map[PeriodID]Period, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	inception, _ := ledger.EarliestDate(in.Transactions)
	endValue, unvalued := c.endValue(in)

	out := make(map[PeriodID]Period, len(PeriodIDs))
	for _, id := range PeriodIDs {
		start := now
		if id != PeriodALL || !inception.IsZero() {
			start = EffectiveStart(id, now, inception)
		}
		p, err := c.period(id, start, now, endValue, unvalued, in)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// CalculateOne returns a single window.
func (c *Calculator) CalculateOne(id PeriodID, in Input) (Period, error) {
	all, err := c.Calculate(in)
	if err != nil {
		return Period{}, err
	}
	return all[id], nil
}

func (c *Calculator) period(id PeriodID, start, now time.Time, endValue float64, unvalued map[string]bool, in Input) (Period, error) {
	startValue, unpriced, err := c.startValue(start, unvalued, in)
	if err != nil {
		return Period{}, err
	}

	p := Period{
		ID:              id,
		StartDate:       start,
		EndDate:         now,
		StartValue:      startValue,
		EndValue:        endValue,
		AbsoluteChange:  endValue - startValue,
		Currency:        in.FX.Base,
		UnpricedSymbols: unpriced,
	}

	if startValue > 0 {
		rate := p.AbsoluteChange / startValue * 100
		p.ReturnRate = &rate
	}

	elapsed := domain.DaysBetween(start, now)
	if elapsed > 0 && startValue > 0 && endValue > 0 {
		annualized := (math.Pow(endValue/startValue, daysPerYear/elapsed) - 1) * 100
		if !math.IsInf(annualized, 0) && !math.IsNaN(annualized) {
			p.AnnualizedReturn = &annualized
		}
	}
	return p, nil
}

// startValue leaves out the symbols endValue could not price so both ends of the
// window cover the same holdings.
func (c *Calculator) startValue(start time.Time, unvalued map[string]bool, in Input) (float64, []string, error) {
	currencies := make(map[string]domain.Currency, len(in.Positions))
	for _, pos := range in.Positions {
		currencies[pos.Symbol] = pos.ListingCurrency()
	}

	groups := ledger.BySymbol(in.Transactions)
	symbols := make([]string, 0, len(groups))
	for symbol := range groups {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	total := 0.0
	var unpriced []string
	for _, symbol := range symbols {
		txs := groups[symbol]
		shares, err := ledger.SharesAsOf(txs, start)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Inconsistent transaction log")
			return 0, nil, err
		}
		if shares <= 0 {
			continue
		}

		point, ok := in.Series[symbol].OnOrBefore(start)
		if !ok || unvalued[symbol] {
			unpriced = append(unpriced, symbol)
			continue
		}

		cur, ok := currencies[symbol]
		if !ok {
			cur = txs[0].Currency
			if cur == "" {
				cur = domain.InferMarket(symbol, txs[0].Market).DefaultCurrency()
			}
		}
		total += in.FX.ToBase(shares*point.Close, cur)
	}

	if len(unpriced) > 0 {
		c.log.Warn().Strs("symbols", unpriced).Time("start", start).Msg("No price on or before window start")
	}
	return total, unpriced, nil
}

// endValue is the live value of every position in the base currency. A position
// without a current price falls back to its most recent cached close; one with
// neither is left out and returned in the unvalued set.
func (c *Calculator) endValue(in Input) (float64, map[string]bool) {
	total := 0.0
	unvalued := make(map[string]bool)
	for _, pos := range in.Positions {
		price := pos.CurrentPrice
		if price <= 0 {
			if last, ok := in.Series[pos.Symbol].MostRecent(); ok {
				price = last.Close
			}
		}
		if price <= 0 {
			unvalued[pos.Symbol] = true
			continue
		}
		total += in.FX.ToBase(pos.Shares*price, pos.ListingCurrency())
	}
	return total, unvalued
}
