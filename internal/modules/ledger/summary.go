package ledger

import (
	"time"

	"github.com/aristath/folio/internal/domain"
)

// Totals are gross flows in one currency
type Totals struct {
	Bought    float64 `json:"bought"`
	Sold      float64 `json:"sold"`
	Dividends float64 `json:"dividends"`
	Fees      float64 `json:"fees"`
	Taxes     float64 `json:"taxes"`
}

// Summary aggregates a transaction log
type Summary struct {
	Count      int                            `json:"count"`
	ByType     map[domain.TransactionType]int `json:"byType"`
	ByCurrency map[domain.Currency]Totals     `json:"byCurrency"`
	Symbols    int                            `json:"symbols"`
	FirstDate  *time.Time                     `json:"firstDate,omitempty"`
	LastDate   *time.Time                     `json:"lastDate,omitempty"`
}

// Summarize counts transactions and totals their flows per currency. Amount is used
// when set, otherwise shares×price.
func Summarize(txs []domain.Transaction) Summary {
	s := Summary{
		Count:      len(txs),
		ByType:     make(map[domain.TransactionType]int),
		ByCurrency: make(map[domain.Currency]Totals),
		Symbols:    len(BySymbol(txs)),
	}

	for _, tx := range txs {
		s.ByType[tx.Type]++

		cur := tx.Currency
		if cur == "" {
			cur = domain.InferMarket(tx.Symbol, tx.Market).DefaultCurrency()
		}
		amount := tx.Amount
		if amount == 0 {
			amount = tx.Shares * tx.Price
		}

		t := s.ByCurrency[cur]
		switch tx.Type {
		case domain.TransactionBuy:
			t.Bought += amount
		case domain.TransactionSell:
			t.Sold += amount
		case domain.TransactionDividend:
			t.Dividends += amount
		}
		t.Fees += tx.Fee
		t.Taxes += tx.Tax
		s.ByCurrency[cur] = t

		d := domain.Day(tx.Date)
		if s.FirstDate == nil || d.Before(*s.FirstDate) {
			s.FirstDate = &d
		}
		if s.LastDate == nil || d.After(*s.LastDate) {
			s.LastDate = &d
		}
	}

	return s
}
