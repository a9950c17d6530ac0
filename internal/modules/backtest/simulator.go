// Package backtest replays historical daily returns under strategy multipliers and
// compares the resulting equity curve with the unmodified baseline.
package backtest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/pkg/formulas"
)

// MinSnapshots is the fewest value snapshots a backtest runs on.
const MinSnapshots = 10

// ErrUnknownStrategy is returned for a strategy id with no multiplier.
var ErrUnknownStrategy = errors.New("unknown backtest strategy")

// Strategy names a return multiplier
type Strategy string

const (
	StrategyBaseline    Strategy = "baseline"
	StrategyGrowth      Strategy = "growth"
	StrategyDefensive   Strategy = "defensive"
	StrategyDiversified Strategy = "diversified"
	StrategyEqual       Strategy = "equal"
)

// Strategies lists every strategy.
var Strategies = []Strategy{StrategyBaseline, StrategyGrowth, StrategyDefensive, StrategyDiversified, StrategyEqual}

// ParseStrategy validates a strategy id.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Apply transforms one daily return under the strategy.
func (s Strategy) Apply(r float64) float64 {
	switch s {
	case StrategyGrowth:
		return r*1.1 + 0.0002
	case StrategyDefensive:
		return r * 0.75
	case StrategyDiversified:
		return r*0.9 + 0.0005
	case StrategyEqual:
		return r * 0.95
	default:
		return r
	}
}

// Snapshot is the portfolio value on one date.
type Snapshot struct {
	Date       time.Time `json:"date"`
	TotalValue float64   `json:"totalValue"`
}

// Stats summarizes one equity stream. All fields are percentages rounded to 2 decimals.
type Stats struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	Volatility       float64 `json:"volatility"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
}

// Point is one day of both equity curves, each starting at 1.0.
type Point struct {
	Date     time.Time `json:"date,omitempty"`
	Baseline float64   `json:"baseline"`
	Scenario float64   `json:"scenario"`
}

// Result compares a strategy against the baseline.
type Result struct {
	Strategy     Strategy `json:"strategy"`
	Insufficient bool     `json:"insufficient"`
	Message      string   `json:"message,omitempty"`
	Days         int      `json:"days"`
	Baseline     Stats    `json:"baseline"`
	Scenario     Stats    `json:"scenario"`
	Series       []Point  `json:"series"`
}

// DailyReturns converts values to simple returns; a non-positive prior value counts as 0%.
func DailyReturns(values []float64) []float64 {
	return formulas.CalculateReturns(values)
}

// Simulate runs strategy over chronological snapshots. Fewer than MinSnapshots
// gives an Insufficient result rather than an error.
func Simulate(snapshots []Snapshot, strategy Strategy) (Result, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return Result{}, err
	}
	if len(snapshots) < MinSnapshots {
		return Result{
			Strategy:     strategy,
			Insufficient: true,
			Message:      fmt.Sprintf("at least %d snapshots required, got %d", MinSnapshots, len(snapshots)),
			Series:       []Point{},
		}, nil
	}

	sorted := make([]Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	values := make([]float64, len(sorted))
	dates := make([]time.Time, len(sorted)-1)
	for i, s := range sorted {
		values[i] = s.TotalValue
		if i > 0 {
			dates[i-1] = domain.Day(s.Date)
		}
	}

	res := run(DailyReturns(values), strategy)
	for i := range res.Series {
		res.Series[i].Date = dates[i]
	}
	return res, nil
}

// SimulateReturns runs strategy directly over daily returns.
func SimulateReturns(returns []float64, strategy Strategy) (Result, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return Result{}, err
	}
	return run(returns, strategy), nil
}

// stream compounds one return sequence.
type stream struct {
	value    float64
	returns  []float64
	drawdown formulas.DrawdownTracker
}

func newStream(n int) *stream {
	s := &stream{value: 1, returns: make([]float64, 0, n)}
	s.drawdown.Observe(1)
	return s
}

func (s *stream) step(r float64) {
	s.value *= 1 + r
	s.returns = append(s.returns, r)
	s.drawdown.Observe(s.value)
}

func (s *stream) stats(days int) Stats {
	total := s.value - 1
	return Stats{
		TotalReturn:      formulas.Round2(total * 100),
		AnnualizedReturn: formulas.Round2(formulas.Annualize(total, float64(days), formulas.TradingDaysPerYear) * 100),
		Volatility:       formulas.Round2(formulas.AnnualizedVolatility(s.returns) * 100),
		MaxDrawdown:      formulas.Round2(s.drawdown.Max() * 100),
	}
}

func run(returns []float64, strategy Strategy) Result {
	baseline := newStream(len(returns))
	scenario := newStream(len(returns))

	series := make([]Point, 0, len(returns))
	for _, r := range returns {
		baseline.step(r)
		scenario.step(strategy.Apply(r))
		series = append(series, Point{
			Baseline: formulas.Round(baseline.value, 6),
			Scenario: formulas.Round(scenario.value, 6),
		})
	}

	return Result{
		Strategy: strategy,
		Days:     len(returns),
		Baseline: baseline.stats(len(returns)),
		Scenario: scenario.stats(len(returns)),
		Series:   series,
	}
}
