// Package analytics resolves market data for a portfolio and runs the calculators over it.
package analytics

import (
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/backtest"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/prices"
)

// Bundle is the resolved input every calculator runs over. It is read-only once built.
type Bundle struct {
	Positions    []domain.Position
	Transactions []domain.Transaction
	// Keyed by position symbol
	Series  map[string]prices.Series
	Lookups map[string]prices.Lookup
	FX      currency.Normalizer
	Start   time.Time
	Now     time.Time
	// Symbols held without a supplied or cached current price
	Unpriced []string
}

func marketOf(symbol string, explicit domain.Market) domain.Market {
	return domain.InferMarket(symbol, explicit)
}

// instruments collects every distinct symbol held or traded with its market.
func instruments(positions []domain.Position, txs []domain.Transaction) map[string]domain.Market {
	out := make(map[string]domain.Market, len(positions))
	for _, p := range positions {
		out[p.Symbol] = marketOf(p.Symbol, p.Market)
	}
	for _, tx := range txs {
		if _, ok := out[tx.Symbol]; !ok {
			out[tx.Symbol] = marketOf(tx.Symbol, tx.Market)
		}
	}
	return out
}

// pricePositions fills missing current prices from the latest close and recomputes
// the derived fields. Without positions, holdings are rebuilt from the ledger. A
// position that stays unpriced keeps its supplied fields.
func pricePositions(positions []domain.Position, txs []domain.Transaction, series map[string]prices.Series, now time.Time) ([]domain.Position, error) {
	latest := func(symbol string) float64 {
		if p, ok := series[symbol].MostRecent(); ok {
			return p.Close
		}
		return 0
	}

	if len(positions) == 0 && len(txs) > 0 {
		holdings, err := ledger.BuildHoldings(txs, now)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Position, 0, len(holdings))
		for _, h := range holdings {
			if h.Shares <= 0 {
				continue
			}
			h.Market = marketOf(h.Symbol, h.Market)
			out = append(out, h.Position(latest(h.Symbol)))
		}
		return out, nil
	}

	out := make([]domain.Position, len(positions))
	for i, p := range positions {
		p.Market = marketOf(p.Symbol, p.Market)
		if p.CurrentPrice <= 0 {
			p.CurrentPrice = latest(p.Symbol)
		}
		out[i] = p.Derived()
	}
	return out, nil
}

// unpricedSymbols lists the positions still without a current price.
func unpricedSymbols(positions []domain.Position) []string {
	var out []string
	for _, p := range positions {
		if !p.Priced() {
			out = append(out, p.Symbol)
		}
	}
	sort.Strings(out)
	return out
}

// valued is one symbol contributing to the value history.
type valued struct {
	symbol   string
	currency domain.Currency
	shares   float64
	ledger   []domain.Transaction
}

func (b *Bundle) valuedSymbols() []valued {
	bySymbol := ledger.BySymbol(b.Transactions)
	seen := make(map[string]bool, len(b.Positions))
	out := make([]valued, 0, len(b.Positions)+len(bySymbol))
	for _, p := range b.Positions {
		seen[p.Symbol] = true
		out = append(out, valued{symbol: p.Symbol, currency: p.ListingCurrency(), shares: p.Shares, ledger: bySymbol[p.Symbol]})
	}
	for symbol, txs := range bySymbol {
		if seen[symbol] {
			continue
		}
		cur := txs[0].Currency
		if cur == "" {
			cur = marketOf(symbol, txs[0].Market).DefaultCurrency()
		}
		out = append(out, valued{symbol: symbol, currency: cur, ledger: txs})
	}
	return out
}

// ValueHistory is the base-currency portfolio value on every date any series has a
// close, from the bundle start. Shares come from the ledger when a symbol has
// transactions and from the current position otherwise. Dates valued at zero are
// skipped.
func (b *Bundle) ValueHistory() ([]backtest.Snapshot, error) {
	start := domain.Day(b.Start)
	symbols := b.valuedSymbols()

	dateSet := make(map[time.Time]struct{})
	for _, s := range b.Series {
		for _, p := range s {
			if d := domain.Day(p.Date); !d.Before(start) {
				dateSet[d] = struct{}{}
			}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	snapshots := make([]backtest.Snapshot, 0, len(dates))
	for _, date := range dates {
		total := 0.0
		for _, v := range symbols {
			shares := v.shares
			if len(v.ledger) > 0 {
				n, err := ledger.SharesAsOf(v.ledger, date)
				if err != nil {
					return nil, err
				}
				shares = n
			}
			if shares <= 0 {
				continue
			}
			point, ok := b.Series[v.symbol].OnOrBefore(date)
			if !ok {
				continue
			}
			total += b.FX.ToBase(shares*point.Close, v.currency)
		}
		if total > 0 {
			snapshots = append(snapshots, backtest.Snapshot{Date: date, TotalValue: total})
		}
	}
	return snapshots, nil
}

// Values returns ValueHistory as a plain chronological slice.
func (b *Bundle) Values() ([]float64, error) {
	history, err := b.ValueHistory()
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(history))
	for i, s := range history {
		values[i] = s.TotalValue
	}
	return values, nil
}

// Degraded lists the symbols whose series fell back to no data or that are held
// without a current price.
func (b *Bundle) Degraded() []string {
	seen := make(map[string]bool, len(b.Unpriced))
	var out []string
	for symbol, l := range b.Lookups {
		if !l.Available() {
			seen[symbol] = true
			out = append(out, symbol)
		}
	}
	for _, symbol := range b.Unpriced {
		if !seen[symbol] {
			seen[symbol] = true
			out = append(out, symbol)
		}
	}
	sort.Strings(out)
	return out
}
