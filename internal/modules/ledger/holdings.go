package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// Holding is the average-cost state of one symbol after replaying its transactions.
type Holding struct {
	Symbol       string          `json:"symbol"`
	Market       domain.Market   `json:"market,omitempty"`
	Currency     domain.Currency `json:"currency"`
	Shares       float64         `json:"shares"`
	Invested     float64         `json:"invested"`
	AveragePrice float64         `json:"averagePrice"`
	RealizedPL   float64         `json:"realizedProfitLoss"`
	Dividends    float64         `json:"dividends"`
	Fees         float64         `json:"fees"`
	FirstDate    time.Time       `json:"firstDate"`
}

// Position turns the holding into a position priced at currentPrice. A zero price
// leaves the derived fields unset.
func (h Holding) Position(currentPrice float64) domain.Position {
	return domain.Position{
		Symbol:        h.Symbol,
		Market:        h.Market,
		Currency:      h.Currency,
		Shares:        h.Shares,
		AveragePrice:  h.AveragePrice,
		CurrentPrice:  currentPrice,
		TotalInvested: h.Invested,
	}.Derived()
}

// BuildHoldings replays transactions dated on or before asOf into average-cost holdings,
// sorted by symbol. Fully sold symbols are kept with zero shares so realized results
// stay visible.
func BuildHoldings(txs []domain.Transaction, asOf time.Time) ([]Holding, error) {
	target := domain.Day(asOf)
	bySymbol := BySymbol(Sorted(txs))

	holdings := make([]Holding, 0, len(bySymbol))
	for symbol, group := range bySymbol {
		h := Holding{Symbol: symbol}
		for _, tx := range group {
			if domain.Day(tx.Date).After(target) {
				break
			}
			if err := h.apply(tx); err != nil {
				return nil, err
			}
		}
		if h.FirstDate.IsZero() {
			continue
		}
		holdings = append(holdings, h)
	}

	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})
	return holdings, nil
}

func (h *Holding) apply(tx domain.Transaction) error {
	if h.FirstDate.IsZero() {
		h.FirstDate = domain.Day(tx.Date)
	}
	if h.Market == "" {
		h.Market = domain.InferMarket(tx.Symbol, tx.Market)
	}
	if h.Currency == "" {
		h.Currency = tx.Currency
		if h.Currency == "" {
			h.Currency = domain.InferMarket(tx.Symbol, tx.Market).DefaultCurrency()
		}
	}
	h.Fees += tx.Fee

	switch tx.Type {
	case domain.TransactionBuy:
		h.Invested += tx.Shares*tx.Price + tx.Fee
		h.Shares += tx.Shares

	case domain.TransactionSell:
		if tx.Shares > h.Shares+shareEpsilon {
			return fmt.Errorf("%w: %s sells %.6f of %.6f on %s",
				ErrNegativeShares, h.Symbol, tx.Shares, h.Shares, domain.Day(tx.Date).Format("2006-01-02"))
		}
		cost := h.AveragePrice * tx.Shares
		h.RealizedPL += tx.Shares*tx.Price - tx.Fee - tx.Tax - cost
		h.Invested -= cost
		h.Shares -= tx.Shares
		if h.Shares <= shareEpsilon {
			h.Shares = 0
			h.Invested = 0
		}

	case domain.TransactionDividend:
		amount := tx.Amount
		if amount == 0 {
			amount = tx.Shares * tx.Price
		}
		h.Dividends += amount - tx.Tax
	}

	h.AveragePrice = 0
	if h.Shares > 0 {
		h.AveragePrice = h.Invested / h.Shares
	}
	return nil
}
