// Package alerts evaluates rule-based portfolio alerts across three severities.
package alerts

import (
	"time"

	money "github.com/Rhymond/go-money"
	"github.com/aristath/folio/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Severity ranks an alert
type Severity string

const (
	SeverityEmergency Severity = "emergency"
	SeverityImportant Severity = "important"
	SeverityInfo      Severity = "info"
)

var severityRank = map[Severity]int{
	SeverityEmergency: 0,
	SeverityImportant: 1,
	SeverityInfo:      2,
}

// Kind identifies the rule that produced an alert
type Kind string

const (
	KindDrop          Kind = "price-drop"
	KindSurge         Kind = "price-surge"
	KindTargetReached Kind = "target-reached"
	KindStopLoss      Kind = "stop-loss"
	KindRebalancing   Kind = "rebalancing"
	KindVolatility    Kind = "volatility"
	KindConcentration Kind = "concentration"
	KindAdvisor       Kind = "advisor"
	KindWeeklySummary Kind = "weekly-summary"
)

// Alert is one evaluated alert. IDs are stable for the same rule and subject.
type Alert struct {
	ID                string         `json:"id"`
	Kind              Kind           `json:"kind"`
	Severity          Severity       `json:"severity"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Symbol            string         `json:"symbol,omitempty"`
	RecommendedAction string         `json:"recommendedAction,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	Data              map[string]any `json:"data,omitempty"`
}

// Counts tallies alerts per severity
type Counts struct {
	Emergency int `json:"emergency"`
	Important int `json:"important"`
	Info      int `json:"info"`
	Total     int `json:"total"`
}

// Response is the sorted alert list with its counts.
type Response struct {
	Alerts []Alert `json:"alerts"`
	Counts Counts  `json:"counts"`
}

// AdvisorItem is an externally produced action item surfaced as an important alert.
type AdvisorItem struct {
	Symbol      string    `json:"symbol,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Action      string    `json:"action,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Thresholds configures the rules. Percentages are ×100.
type Thresholds struct {
	DropPct          float64 `toml:"drop_pct"`
	SurgePct         float64 `toml:"surge_pct"`
	VolatilityPct    float64 `toml:"volatility_pct"`
	ConcentrationPct float64 `toml:"concentration_pct"`
}

// DefaultThresholds are the standard rule limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DropPct:          -5,
		SurgePct:         5,
		VolatilityPct:    25,
		ConcentrationPct: 25,
	}
}

var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/aristath/folio/alerts"))

// alertID derives a stable id from the rule and its subject.
func alertID(kind Kind, subject string) string {
	return uuid.NewSHA1(alertNamespace, []byte(string(kind)+":"+subject)).String()
}

// formatMoney renders an amount with the currency's symbol and minor units.
func formatMoney(amount float64, cur domain.Currency) string {
	c := money.GetCurrency(string(cur))
	if c == nil {
		return decimal.NewFromFloat(amount).StringFixed(2) + " " + string(cur)
	}
	factor := decimal.New(1, int32(c.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minor, c.Code).Display()
}
