// Package charts provides services for generating chart data from historical prices.
package charts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/benchmark"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/rs/zerolog"
)

// ErrUnknownRange is returned for range or period strings the service does not know.
var ErrUnknownRange = errors.New("unknown chart range")

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"`  // YYYY-MM-DD, YYYY-Www or YYYY-MM
	Value float64 `json:"value"` // Close price or average close
}

// Instrument names a symbol to chart
type Instrument struct {
	Symbol string        `json:"symbol"`
	Market domain.Market `json:"market,omitempty"`
}

// SecurityChart is the daily closes of one symbol
type SecurityChart struct {
	Symbol string           `json:"symbol"`
	Market domain.Market    `json:"market"`
	Range  string           `json:"range"`
	Source prices.Origin    `json:"source"`
	Note   string           `json:"note,omitempty"`
	Points []ChartDataPoint `json:"points"`
}

// Service provides chart data operations
type Service struct {
	series benchmark.SeriesGetter
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a new charts service
func NewService(series benchmark.SeriesGetter, log zerolog.Logger) *Service {
	return &Service{
		series: series,
		now:    time.Now,
		log:    log.With().Str("service", "charts").Logger(),
	}
}

// WithClock overrides the clock, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetSparklinesAggregated returns sparkline data for each instrument: weekly averages
// over 1Y or monthly averages over 5Y. Instruments without data are left out.
func (s *Service) GetSparklinesAggregated(ctx context.Context, instruments []Instrument, period string) (map[string][]ChartDataPoint, error) {
	var start time.Time
	var groupBy string

	now := domain.Day(s.now())
	switch period {
	case "1Y":
		start = now.AddDate(-1, 0, 0)
		groupBy = "week" // Weekly aggregation
	case "5Y":
		start = now.AddDate(-5, 0, 0)
		groupBy = "month" // Monthly aggregation
	default:
		return nil, fmt.Errorf("%w: %s (must be 1Y or 5Y)", ErrUnknownRange, period)
	}

	result := make(map[string][]ChartDataPoint)
	for _, inst := range instruments {
		market := domain.InferMarket(inst.Symbol, inst.Market)
		lookup, err := s.series.GetSeries(ctx, inst.Symbol, market, start)
		if err != nil {
			return nil, err
		}
		if !lookup.Available() {
			s.log.Debug().Str("symbol", inst.Symbol).Str("note", lookup.Note).Msg("No series for sparkline")
			continue
		}

		if points := Aggregate(lookup.Series.Between(start, now), groupBy); len(points) > 0 {
			result[inst.Symbol] = points
		}
	}

	return result, nil
}

// Aggregate averages closes per ISO week ("week") or calendar month ("month"),
// ordered by period.
func Aggregate(series prices.Series, groupBy string) []ChartDataPoint {
	aggregated := make(map[string][]float64) // period -> close prices

	for _, p := range series {
		var period string
		if groupBy == "week" {
			year, week := p.Date.ISOWeek()
			period = fmt.Sprintf("%d-W%02d", year, week)
		} else {
			period = p.Date.Format("2006-01")
		}
		aggregated[period] = append(aggregated[period], p.Close)
	}

	periods := make([]string, 0, len(aggregated))
	for period := range aggregated {
		periods = append(periods, period)
	}
	sort.Strings(periods)

	points := make([]ChartDataPoint, 0, len(periods))
	for _, period := range periods {
		values := aggregated[period]

		var sum float64
		for _, v := range values {
			sum += v
		}

		points = append(points, ChartDataPoint{
			Time:  period,
			Value: sum / float64(len(values)),
		})
	}

	return points
}

// GetSecurityChart returns daily closes for one symbol over a range
// (1M, 3M, 6M, 1Y, 5Y, 10Y or all; empty means all).
func (s *Service) GetSecurityChart(ctx context.Context, inst Instrument, dateRange string) (SecurityChart, error) {
	if inst.Symbol == "" {
		return SecurityChart{}, fmt.Errorf("symbol cannot be empty")
	}
	if dateRange == "" {
		dateRange = "all"
	}

	now := domain.Day(s.now())
	start, ok := parseDateRange(dateRange, now)
	if !ok {
		return SecurityChart{}, fmt.Errorf("%w: %s", ErrUnknownRange, dateRange)
	}

	market := domain.InferMarket(inst.Symbol, inst.Market)
	lookup, err := s.series.GetSeries(ctx, inst.Symbol, market, start)
	if err != nil {
		return SecurityChart{}, err
	}

	chart := SecurityChart{
		Symbol: inst.Symbol,
		Market: market,
		Range:  dateRange,
		Source: lookup.Origin,
		Note:   lookup.Note,
		Points: []ChartDataPoint{},
	}
	for _, p := range lookup.Series.Between(start, now) {
		chart.Points = append(chart.Points, ChartDataPoint{
			Time:  p.Date.Format("2006-01-02"),
			Value: p.Close,
		})
	}

	return chart, nil
}

// parseDateRange converts a range string to a start date. "all" reaches back ten years.
func parseDateRange(rangeStr string, now time.Time) (time.Time, bool) {
	switch rangeStr {
	case "1M":
		return now.AddDate(0, -1, 0), true
	case "3M":
		return now.AddDate(0, -3, 0), true
	case "6M":
		return now.AddDate(0, -6, 0), true
	case "1Y":
		return now.AddDate(-1, 0, 0), true
	case "5Y":
		return now.AddDate(-5, 0, 0), true
	case "10Y", "all":
		return now.AddDate(-10, 0, 0), true
	default:
		return time.Time{}, false
	}
}
