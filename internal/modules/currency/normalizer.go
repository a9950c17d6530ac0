// Package currency converts amounts between USD and KRW and resolves spot rates.
package currency

import (
	"github.com/aristath/folio/internal/domain"
)

// Rate is a spot quote: one unit of Base buys Rate units of Quote.
type Rate struct {
	Base   domain.Currency `json:"base"`
	Quote  domain.Currency `json:"quote"`
	Rate   float64         `json:"rate"`
	Source string          `json:"source"`
}

// Normalizer converts amounts into a single base currency.
//
// Only the USD/KRW pair is supported. Without a rate, amounts pass through
// unconverted and Degraded reports true.
type Normalizer struct {
	Base   domain.Currency
	USDKRW *Rate
}

// NewNormalizer creates a normalizer. rate may be nil.
func NewNormalizer(base domain.Currency, rate *Rate) Normalizer {
	if base == "" {
		base = domain.CurrencyKRW
	}
	if rate != nil && rate.Rate <= 0 {
		rate = nil
	}
	return Normalizer{Base: base, USDKRW: rate}
}

// Convert moves amount from one currency to another.
func (n Normalizer) Convert(amount float64, from, to domain.Currency) float64 {
	if from == to || from == "" || to == "" {
		return amount
	}
	if n.USDKRW == nil {
		return amount
	}

	krwPerUSD := n.usdKRW()
	switch {
	case from == domain.CurrencyUSD && to == domain.CurrencyKRW:
		return amount * krwPerUSD
	case from == domain.CurrencyKRW && to == domain.CurrencyUSD:
		return amount / krwPerUSD
	default:
		return amount
	}
}

// ToBase converts amount into the base currency.
func (n Normalizer) ToBase(amount float64, from domain.Currency) float64 {
	return n.Convert(amount, from, n.Base)
}

// Degraded reports whether cross-currency amounts are passed through unconverted.
func (n Normalizer) Degraded() bool {
	return n.USDKRW == nil
}

// RateValue returns the KRW per USD rate, or nil when unknown.
func (n Normalizer) RateValue() *float64 {
	if n.USDKRW == nil {
		return nil
	}
	v := n.usdKRW()
	return &v
}

// Source names where the rate came from, "fallback" when there is none.
func (n Normalizer) Source() string {
	if n.USDKRW == nil {
		return "fallback"
	}
	return n.USDKRW.Source
}

// usdKRW returns KRW per USD regardless of how the quote was oriented.
func (n Normalizer) usdKRW() float64 {
	if n.USDKRW.Base == domain.CurrencyKRW && n.USDKRW.Quote == domain.CurrencyUSD {
		return 1 / n.USDKRW.Rate
	}
	return n.USDKRW.Rate
}
