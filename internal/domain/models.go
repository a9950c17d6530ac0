// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyKRW Currency = "KRW"
)

// ParseCurrency normalizes a currency code. Only USD and KRW are supported.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(code))) {
	case CurrencyUSD:
		return CurrencyUSD, nil
	case CurrencyKRW:
		return CurrencyKRW, nil
	default:
		return "", fmt.Errorf("unsupported currency %q", code)
	}
}

// Market identifies where a symbol trades
type Market string

const (
	MarketUS     Market = "US"
	MarketKR     Market = "KR"
	MarketGlobal Market = "GLOBAL"
)

// DefaultCurrency returns the listing currency of a market.
func (m Market) DefaultCurrency() Currency {
	if m == MarketKR {
		return CurrencyKRW
	}
	return CurrencyUSD
}

var krxCode = regexp.MustCompile(`^[0-9][0-9A-Z]{5}$`)

// InferMarket picks the market of a symbol: explicit first, then the KRX code shape
// (six characters starting with a digit, e.g. 005930), else US.
func InferMarket(symbol string, explicit Market) Market {
	if explicit != "" {
		return explicit
	}
	if krxCode.MatchString(symbol) {
		return MarketKR
	}
	return MarketUS
}

// TransactionType is the kind of ledger event
type TransactionType string

const (
	TransactionBuy      TransactionType = "buy"
	TransactionSell     TransactionType = "sell"
	TransactionDividend TransactionType = "dividend"
)

// PurchaseMethod records how a transaction was entered
type PurchaseMethod string

const (
	PurchaseManual PurchaseMethod = "manual"
	PurchaseAuto   PurchaseMethod = "auto"
)

// Position represents a portfolio position snapshot.
// All money fields are in Currency.
type Position struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name,omitempty"`
	Market        Market   `json:"market"`
	Currency      Currency `json:"currency"`
	Shares        float64  `json:"shares"`
	AveragePrice  float64  `json:"averagePrice"`
	CurrentPrice  float64  `json:"currentPrice"`
	TotalValue    float64  `json:"totalValue"`
	TotalInvested float64  `json:"totalInvested"`
	ReturnRate    float64  `json:"returnRate"`
	ProfitLoss    float64  `json:"profitLoss"`
	Sector        string   `json:"sector,omitempty"`
	AssetType     string   `json:"assetType,omitempty"`

	// User-defined price thresholds; nil when unset.
	TargetPrice   *float64 `json:"targetPrice,omitempty"`
	StopLossPrice *float64 `json:"stopLossPrice,omitempty"`
}

// Recalculate returns a copy whose derived fields follow the position invariants:
// TotalValue = Shares*CurrentPrice, ProfitLoss = TotalValue-TotalInvested and
// ReturnRate = (TotalValue/TotalInvested-1)*100 when TotalInvested > 0, else 0.
func (p Position) Recalculate() Position {
	if p.TotalInvested == 0 && p.AveragePrice > 0 {
		p.TotalInvested = p.Shares * p.AveragePrice
	}
	p.TotalValue = p.Shares * p.CurrentPrice
	p.ProfitLoss = p.TotalValue - p.TotalInvested
	p.ReturnRate = 0
	if p.TotalInvested > 0 {
		p.ReturnRate = (p.TotalValue/p.TotalInvested - 1) * 100
	}
	return p
}

// Priced reports whether the position carries a current price.
func (p Position) Priced() bool {
	return p.CurrentPrice > 0
}

// Derived recalculates only when the position has both a current price and a cost
// basis. Otherwise the supplied ProfitLoss and ReturnRate are kept as they are; an
// unpriced position is never valued at zero.
func (p Position) Derived() Position {
	if !p.Priced() {
		return p
	}
	if p.TotalInvested > 0 || p.AveragePrice > 0 {
		return p.Recalculate()
	}
	p.TotalValue = p.Shares * p.CurrentPrice
	return p
}

// ListingCurrency returns the position currency, defaulting to the market's currency.
func (p Position) ListingCurrency() Currency {
	if p.Currency != "" {
		return p.Currency
	}
	return p.Market.DefaultCurrency()
}

// Transaction is one entry of the append-only ledger.
type Transaction struct {
	ID             string          `json:"id,omitempty"`
	Symbol         string          `json:"symbol"`
	Market         Market          `json:"market,omitempty"`
	Type           TransactionType `json:"type"`
	Date           time.Time       `json:"date"`
	Shares         float64         `json:"shares"`
	Price          float64         `json:"price"`
	Amount         float64         `json:"amount"`
	Fee            float64         `json:"fee"`
	Tax            float64         `json:"tax"`
	Currency       Currency        `json:"currency"`
	PurchaseMethod PurchaseMethod  `json:"purchaseMethod,omitempty"`
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the fractional number of days from a to b.
func DaysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}
