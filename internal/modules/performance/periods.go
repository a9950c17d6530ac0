// Package performance computes portfolio returns over fixed lookback windows.
package performance

import (
	"time"

	"github.com/aristath/folio/internal/domain"
)

// PeriodID names a lookback window
type PeriodID string

const (
	Period1D  PeriodID = "1D"
	Period1W  PeriodID = "1W"
	Period1M  PeriodID = "1M"
	Period3M  PeriodID = "3M"
	PeriodYTD PeriodID = "YTD"
	Period1Y  PeriodID = "1Y"
	PeriodALL PeriodID = "ALL"
)

// PeriodIDs lists every window in display order.
var PeriodIDs = []PeriodID{Period1D, Period1W, Period1M, Period3M, PeriodYTD, Period1Y, PeriodALL}

// ParsePeriodID validates a window id.
func ParsePeriodID(s string) (PeriodID, bool) {
	for _, id := range PeriodIDs {
		if string(id) == s {
			return id, true
		}
	}
	return "", false
}

// NominalStart returns the window start before clamping. ALL has no nominal start
// and returns inception.
func NominalStart(id PeriodID, now, inception time.Time) time.Time {
	today := domain.Day(now)
	switch id {
	case Period1D:
		return today.AddDate(0, 0, -1)
	case Period1W:
		return today.AddDate(0, 0, -7)
	case Period1M:
		return today.AddDate(0, -1, 0)
	case Period3M:
		return today.AddDate(0, -3, 0)
	case PeriodYTD:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case Period1Y:
		return today.AddDate(-1, 0, 0)
	default:
		return domain.Day(inception)
	}
}

// EffectiveStart clamps the nominal start to inception: no window starts before
// the portfolio existed.
func EffectiveStart(id PeriodID, now, inception time.Time) time.Time {
	start := NominalStart(id, now, inception)
	if !inception.IsZero() && start.Before(domain.Day(inception)) {
		return domain.Day(inception)
	}
	return start
}
