package tax

import (
	"testing"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func krw() currency.Normalizer {
	return currency.NewNormalizer(domain.CurrencyKRW, nil)
}

// position with the given profit/loss on a 1,000,000 investment
func withPL(symbol string, pl float64) domain.Position {
	return domain.Position{
		Symbol:        symbol,
		Market:        domain.MarketKR,
		Shares:        1,
		CurrentPrice:  1_000_000 + pl,
		TotalInvested: 1_000_000,
	}
}

func TestPlan_GreedyHarvest(t *testing.T) {
	planner := NewPlanner(22, logger.Nop())
	positions := []domain.Position{withPL("B", -100_000), withPL("A", -300_000)}

	res := planner.Plan(positions, 350_000, 0, krw())

	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "A", res.Candidates[0].Symbol)
	assert.Equal(t, 300_000.0, res.Candidates[0].HarvestAmount)
	assert.Equal(t, ActionHarvestLoss, res.Candidates[0].Action)
	assert.Equal(t, "B", res.Candidates[1].Symbol)
	assert.Equal(t, 50_000.0, res.Candidates[1].HarvestAmount)
	assert.Equal(t, ActionHarvestLoss, res.Candidates[1].Action)

	assert.Equal(t, 350_000.0, res.Summary.HarvestAchieved)
	assert.Equal(t, 0.0, res.Summary.RemainingTarget)
	assert.Equal(t, 400_000.0, res.Summary.TotalUnrealizedLoss)
	assert.Equal(t, 77_000.0, res.Summary.EstimatedTaxSavings)
	assert.Equal(t, 22.0, res.Summary.TaxRate)
}

func TestPlan_BucketsAndDisplayOrder(t *testing.T) {
	planner := NewPlanner(22, logger.Nop())
	positions := []domain.Position{
		withPL("SMALLGAIN", 10_000),
		withPL("LOSS1", -50_000),
		withPL("BIGGAIN", 200_000),
		withPL("LOSS2", -80_000),
		withPL("FLAT", 0),
	}

	res := planner.Plan(positions, 60_000, 15, krw())

	symbols := make([]string, len(res.Candidates))
	actions := make([]Action, len(res.Candidates))
	for i, c := range res.Candidates {
		symbols[i] = c.Symbol
		actions[i] = c.Action
	}
	assert.Equal(t, []string{"LOSS2", "BIGGAIN", "SMALLGAIN", "LOSS1", "FLAT"}, symbols)
	assert.Equal(t, []Action{ActionHarvestLoss, ActionOffsetGain, ActionOffsetGain, ActionMonitor, ActionMonitor}, actions)

	assert.Equal(t, 60_000.0, res.Candidates[0].HarvestAmount)
	assert.Equal(t, 0.0, res.Candidates[3].HarvestAmount)
	assert.Equal(t, 210_000.0, res.Summary.TotalUnrealizedGain)
	assert.Equal(t, 9_000.0, res.Summary.EstimatedTaxSavings)
}

func TestPlan_SuppliedProfitLossOnly(t *testing.T) {
	positions := []domain.Position{
		{Symbol: "A", Market: domain.MarketKR, ProfitLoss: -300_000},
		{Symbol: "B", Market: domain.MarketKR, ProfitLoss: -100_000},
	}

	res := NewPlanner(22, logger.Nop()).Plan(positions, 350_000, 22, krw())

	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "A", res.Candidates[0].Symbol)
	assert.Equal(t, 300_000.0, res.Candidates[0].HarvestAmount)
	assert.Equal(t, "B", res.Candidates[1].Symbol)
	assert.Equal(t, 50_000.0, res.Candidates[1].HarvestAmount)
	assert.Equal(t, 350_000.0, res.Summary.HarvestAchieved)
	assert.Equal(t, 0.0, res.Summary.RemainingTarget)
	assert.Equal(t, 77_000.0, res.Summary.EstimatedTaxSavings)
}

func TestPlan_UnpricedPositionIsNotALoss(t *testing.T) {
	positions := []domain.Position{
		{Symbol: "XYZ", Market: domain.MarketUS, Shares: 10, AveragePrice: 100, TotalInvested: 1000},
	}

	res := NewPlanner(22, logger.Nop()).Plan(positions, 1_000, 22, krw())

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, ActionMonitor, res.Candidates[0].Action)
	assert.Equal(t, 0.0, res.Summary.HarvestAchieved)
	assert.Equal(t, 0.0, res.Summary.TotalUnrealizedLoss)
}

func TestPlan_TargetExceedsLosses(t *testing.T) {
	res := NewPlanner(22, logger.Nop()).Plan([]domain.Position{withPL("A", -100)}, 1_000, 22, krw())

	assert.Equal(t, 100.0, res.Summary.HarvestAchieved)
	assert.Equal(t, 900.0, res.Summary.RemainingTarget)
}

func TestPlan_ConvertsToBase(t *testing.T) {
	fx := currency.NewNormalizer(domain.CurrencyKRW, &currency.Rate{Base: domain.CurrencyUSD, Quote: domain.CurrencyKRW, Rate: 1000})
	positions := []domain.Position{
		{Symbol: "AAPL", Market: domain.MarketUS, Shares: 1, CurrentPrice: 90, TotalInvested: 100},
	}

	res := NewPlanner(22, logger.Nop()).Plan(positions, 5_000, 22, fx)

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, -10_000.0, res.Candidates[0].ProfitLoss)
	assert.Equal(t, 5_000.0, res.Candidates[0].HarvestAmount)
	assert.Equal(t, domain.CurrencyKRW, res.Summary.Currency)
}

func TestPlan_Empty(t *testing.T) {
	res := NewPlanner(22, logger.Nop()).Plan(nil, 1_000, 0, krw())

	assert.Empty(t, res.Candidates)
	assert.Equal(t, 0.0, res.Summary.HarvestAchieved)
	assert.Equal(t, 1_000.0, res.Summary.RemainingTarget)
}
