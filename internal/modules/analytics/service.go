package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/alerts"
	"github.com/aristath/folio/internal/modules/backtest"
	"github.com/aristath/folio/internal/modules/benchmark"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/performance"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/modules/rebalancing"
	"github.com/aristath/folio/internal/modules/risk"
	"github.com/aristath/folio/internal/modules/scenario"
	"github.com/aristath/folio/internal/modules/tax"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultHistoryYears is how far back series are loaded when the ledger is younger.
const DefaultHistoryYears = 1

// Settings are the tunables of the calculators.
type Settings struct {
	BaseCurrency domain.Currency
	RiskFreeRate float64 // annual, fraction
	TaxRate      float64 // percent
	HoldEpsilon  float64 // percentage points
	Thresholds   alerts.Thresholds
}

// Service loads bundles and runs every calculator over them.
type Service struct {
	series   benchmark.SeriesGetter
	rates    currency.RateSource
	settings Settings

	performance *performance.Calculator
	risk        *risk.Calculator
	benchmarks  *benchmark.Comparator
	rebalancing *rebalancing.Service
	tax         *tax.Planner
	alerts      *alerts.Evaluator
	scenario    *scenario.Projector

	now func() time.Time
	log zerolog.Logger
}

// NewService creates a new analytics service. rates may be nil, in which case no
// currency conversion happens.
func NewService(series benchmark.SeriesGetter, rates currency.RateSource, settings Settings, log zerolog.Logger) *Service {
	if settings.BaseCurrency == "" {
		settings.BaseCurrency = domain.CurrencyKRW
	}
	return &Service{
		series:      series,
		rates:       rates,
		settings:    settings,
		performance: performance.NewCalculator(log),
		risk:        risk.NewCalculator(settings.RiskFreeRate, log),
		benchmarks:  benchmark.NewComparator(series, log),
		rebalancing: rebalancing.NewService(settings.HoldEpsilon, log),
		tax:         tax.NewPlanner(settings.TaxRate, log),
		alerts:      alerts.NewEvaluator(settings.Thresholds, log),
		scenario:    scenario.NewProjector(log),
		now:         time.Now,
		log:         log.With().Str("service", "analytics").Logger(),
	}
}

// WithClock replaces the wall clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// LoadBundle fetches one series per distinct (symbol, market) and the USD/KRW rate in
// parallel, then prices the positions. Missing data degrades the bundle; only
// cancellation and ledger faults are errors.
func (s *Service) LoadBundle(ctx context.Context, positions []domain.Position, txs []domain.Transaction) (*Bundle, error) {
	started := time.Now()
	now := s.now()

	start := now.AddDate(-DefaultHistoryYears, 0, 0)
	if inception, ok := ledger.EarliestDate(txs); ok && inception.Before(start) {
		start = inception
	}

	wanted := instruments(positions, txs)
	lookups := make(map[string]prices.Lookup, len(wanted))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for symbol, market := range wanted {
		g.Go(func() error {
			lookup, err := s.series.GetSeries(gctx, symbol, market, start)
			if err != nil {
				return fmt.Errorf("failed to load series for %s: %w", symbol, err)
			}
			mu.Lock()
			lookups[symbol] = lookup
			mu.Unlock()
			return nil
		})
	}

	var fx currency.Normalizer
	g.Go(func() error {
		n, err := currency.Resolve(gctx, s.rates, s.settings.BaseCurrency, s.log)
		if err != nil {
			return fmt.Errorf("failed to resolve exchange rate: %w", err)
		}
		fx = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[string]prices.Series, len(lookups))
	for symbol, l := range lookups {
		if l.Available() {
			series[symbol] = l.Series
		}
	}

	priced, err := pricePositions(positions, txs, series, now)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Positions:    priced,
		Transactions: txs,
		Series:       series,
		Lookups:      lookups,
		FX:           fx,
		Start:        start,
		Now:          now,
		Unpriced:     unpricedSymbols(priced),
	}

	s.log.Debug().
		Int("symbols", len(wanted)).
		Strs("degraded", b.Degraded()).
		Bool("fx_degraded", fx.Degraded()).
		Dur("duration", time.Since(started)).
		Msg("Loaded analytics bundle")
	return b, nil
}

func (s *Service) performanceInput(b *Bundle) performance.Input {
	return performance.Input{
		Positions:    b.Positions,
		Transactions: b.Transactions,
		Series:       b.Series,
		FX:           b.FX,
		Now:          b.Now,
	}
}

// Performance returns every lookback window.
func (s *Service) Performance(b *Bundle) (map[performance.PeriodID]performance.Period, error) {
	return s.performance.Calculate(s.performanceInput(b))
}

// Benchmarks compares the portfolio return over period against the given benchmark
// ids (all defaults when empty).
func (s *Service) Benchmarks(ctx context.Context, b *Bundle, ids []string, period performance.PeriodID) ([]benchmark.Result, error) {
	p, err := s.performance.CalculateOne(period, s.performanceInput(b))
	if err != nil {
		return nil, err
	}
	return s.benchmarks.Compare(ctx, benchmark.FindTargets(ids), p.StartDate, b.Now, p.ReturnRate)
}

// Risk computes the risk report over the reconstructed value history.
func (s *Service) Risk(b *Bundle) (risk.Report, error) {
	values, err := b.Values()
	if err != nil {
		return risk.Report{}, err
	}
	return s.risk.Analyze(values, b.Positions, b.FX), nil
}

// Correlation returns the pairwise correlation of the held symbols' closes.
func (s *Service) Correlation(b *Bundle) risk.Correlation {
	held := make(map[string]prices.Series, len(b.Positions))
	for _, p := range b.Positions {
		if series, ok := b.Series[p.Symbol]; ok {
			held[p.Symbol] = series.Between(b.Start, b.Now)
		}
	}
	return risk.CorrelationMatrix(held)
}

// Presets returns every rebalancing preset for the bundle.
func (s *Service) Presets(b *Bundle) []rebalancing.Preset {
	return s.rebalancing.Presets(b.Positions, b.FX)
}

// Rebalancing recommends moves toward one preset, or toward every preset when id is empty.
func (s *Service) Rebalancing(b *Bundle, id rebalancing.PresetID) ([]rebalancing.Recommendation, error) {
	var presets []rebalancing.Preset
	if id == "" {
		presets = s.rebalancing.Presets(b.Positions, b.FX)
	} else {
		p, err := s.rebalancing.Preset(id, b.Positions, b.FX)
		if err != nil {
			return nil, err
		}
		presets = []rebalancing.Preset{p}
	}

	out := make([]rebalancing.Recommendation, 0, len(presets))
	for _, p := range presets {
		out = append(out, s.rebalancing.Recommend(b.Positions, p, b.FX))
	}
	return out, nil
}

// Backtest replays the value history under strategy.
func (s *Service) Backtest(b *Bundle, strategy backtest.Strategy) (backtest.Result, error) {
	history, err := b.ValueHistory()
	if err != nil {
		return backtest.Result{}, err
	}
	return backtest.Simulate(history, strategy)
}

// TaxOptimization plans loss harvesting toward target (base currency). A
// non-positive taxRate uses the configured rate.
func (s *Service) TaxOptimization(b *Bundle, target, taxRate float64) tax.Response {
	return s.tax.Plan(b.Positions, target, taxRate, b.FX)
}

// Alerts evaluates every alert rule. Rebalancing suggestions come from the AI preset.
func (s *Service) Alerts(b *Bundle, advisor []alerts.AdvisorItem) (alerts.Response, error) {
	report, err := s.Risk(b)
	if err != nil {
		return alerts.Response{}, err
	}

	in := alerts.Input{
		Positions: b.Positions,
		FX:        b.FX,
		Advisor:   advisor,
		Now:       b.Now,
	}
	if report.Observations > 1 {
		in.Volatility = &report.Volatility
	}
	if len(b.Positions) > 0 {
		recs, err := s.Rebalancing(b, rebalancing.PresetAI)
		if err != nil {
			return alerts.Response{}, err
		}
		in.Rebalancing = &recs[0]
	}
	return s.alerts.Evaluate(in), nil
}

// Scenario projects the bundle's positions under cfg.
func (s *Service) Scenario(b *Bundle, cfg scenario.Config) (scenario.Response, error) {
	return s.scenario.Project(b.Positions, cfg, b.FX)
}
