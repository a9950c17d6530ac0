package risk

import (
	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/pkg/formulas"
	"github.com/rs/zerolog"
)

// Report bundles the risk metrics of one portfolio.
type Report struct {
	Volatility           float64         `json:"volatility"`
	SharpeRatio          float64         `json:"sharpeRatio"`
	SortinoRatio         *float64        `json:"sortinoRatio"`
	MaxDrawdown          float64         `json:"maxDrawdown"`
	CurrentDrawdown      float64         `json:"currentDrawdown"`
	Concentration        float64         `json:"concentration"`
	DiversificationScore float64         `json:"diversificationScore"`
	SectorCount          int             `json:"sectorCount"`
	Weights              []WeightEntry   `json:"weights"`
	Observations         int             `json:"observations"`
	Currency             domain.Currency `json:"currency"`
}

// Calculator runs the risk metrics against a configured annual risk-free rate.
type Calculator struct {
	riskFreeRate float64
	log          zerolog.Logger
}

// NewCalculator creates a risk calculator. riskFreeRate is annual, as a fraction.
func NewCalculator(riskFreeRate float64, log zerolog.Logger) *Calculator {
	return &Calculator{
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("service", "risk").Logger(),
	}
}

// Analyze computes the report for a chronological value history and the current
// positions. The Sharpe ratio here is annualized from daily returns against the
// annual risk-free rate.
func (c *Calculator) Analyze(values []float64, positions []domain.Position, fx currency.Normalizer) Report {
	returns := formulas.CalculateReturns(values)
	weights := Weights(positions, fx)
	sectors := SectorCount(positions)

	report := Report{
		Volatility:           formulas.Round2(Volatility(values)),
		SharpeRatio:          formulas.Round2(formulas.AnnualizedSharpe(returns, c.riskFreeRate, formulas.TradingDaysPerYear)),
		MaxDrawdown:          formulas.Round2(MaxDrawdown(values)),
		Concentration:        formulas.Round2(Concentration(weights)),
		DiversificationScore: formulas.Round2(DiversificationScore(weights, sectors)),
		SectorCount:          sectors,
		Weights:              SortedWeights(weights),
		Observations:         len(returns),
		Currency:             fx.Base,
	}

	if sortino := formulas.CalculateSortinoRatio(returns, c.riskFreeRate, 0, formulas.TradingDaysPerYear); sortino != nil {
		v := formulas.Round2(*sortino)
		report.SortinoRatio = &v
	}
	if dd := formulas.CalculateDrawdownMetrics(values); dd != nil {
		report.CurrentDrawdown = formulas.Round2(dd.CurrentDrawdown * 100)
	}

	if len(values) < 2 {
		c.log.Debug().Int("points", len(values)).Msg("Value history too short for return-based metrics")
	}
	return report
}
