package rebalancing

import (
	"testing"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd() currency.Normalizer {
	return currency.NewNormalizer(domain.CurrencyUSD, nil)
}

func newService() *Service {
	return NewService(DefaultHoldEpsilon, logger.Nop())
}

func pos(symbol string, value float64, sector, assetType string) domain.Position {
	return domain.Position{
		Symbol:       symbol,
		Market:       domain.MarketUS,
		Shares:       1,
		CurrentPrice: value,
		AveragePrice: value,
		Sector:       sector,
		AssetType:    assetType,
	}
}

func samplePortfolio() []domain.Position {
	return []domain.Position{
		pos("AAPL", 4000, "Technology", "stock"),
		pos("JNJ", 1500, "Health Care", "stock"),
		pos("VNQ", 1000, "Real Estate", "reit"),
		pos("XOM", 2500, "Energy", "stock"),
		pos("NVDA", 1000, "Semiconductors", "stock"),
	}
}

func TestRoundWeights(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]float64
		expected map[string]float64
	}{
		{
			name:     "equal thirds",
			raw:      map[string]float64{"A": 100.0 / 3, "B": 100.0 / 3, "C": 100.0 / 3},
			expected: map[string]float64{"A": 33.4, "B": 33.3, "C": 33.3},
		},
		{
			name:     "largest remainder gets the missing tenth",
			raw:      map[string]float64{"A": 50.04, "B": 49.96},
			expected: map[string]float64{"A": 50.0, "B": 50.0},
		},
		{
			name:     "single symbol",
			raw:      map[string]float64{"A": 99.99},
			expected: map[string]float64{"A": 100.0},
		},
		{
			name:     "half tenths round down",
			raw:      map[string]float64{"A": 50.05, "B": 50.05},
			expected: map[string]float64{"A": 50.0, "B": 50.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundWeights(tt.raw)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tenthsTotal, SumTenths(got))
		})
	}
}

func TestEqualPreset_ThreeSymbols(t *testing.T) {
	positions := []domain.Position{pos("A", 10, "", ""), pos("B", 20, "", ""), pos("C", 30, "", "")}

	p, err := newService().Preset(PresetEqual, positions, usd())
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"A": 33.4, "B": 33.3, "C": 33.3}, p.TargetWeights)
	assert.Equal(t, 1000, SumTenths(p.TargetWeights))
}

func TestPresets_AlwaysSumToHundred(t *testing.T) {
	portfolios := map[string][]domain.Position{
		"sample":     samplePortfolio(),
		"single":     {pos("ONLY", 123.45, "Technology", "")},
		"zero value": {pos("A", 0, "", ""), pos("B", 0, "Utilities", "")},
		"seven": {
			pos("A", 1, "", ""), pos("B", 2, "", ""), pos("C", 3, "Technology", ""),
			pos("D", 500, "", ""), pos("E", 7, "Utilities", ""), pos("F", 11, "", "fund"), pos("G", 13, "", ""),
		},
	}

	svc := newService()
	for name, positions := range portfolios {
		t.Run(name, func(t *testing.T) {
			for _, p := range svc.Presets(positions, usd()) {
				assert.Equal(t, 1000, SumTenths(p.TargetWeights), "preset %s", p.ID)
				assert.Len(t, p.TargetWeights, len(positions), "preset %s", p.ID)
			}
		})
	}
}

func TestDefensivePreset(t *testing.T) {
	p, err := newService().Preset(PresetDefensive, samplePortfolio(), usd())
	require.NoError(t, err)

	// defensive group JNJ 1500 + VNQ 1000 splits 60
	assert.Equal(t, 36.0, p.TargetWeights["JNJ"])
	assert.Equal(t, 24.0, p.TargetWeights["VNQ"])
	// rest AAPL 4000, XOM 2500, NVDA 1000 splits 40
	assert.InDelta(t, 21.3, p.TargetWeights["AAPL"], 0.11)
	assert.InDelta(t, 13.3, p.TargetWeights["XOM"], 0.11)
	assert.InDelta(t, 5.3, p.TargetWeights["NVDA"], 0.11)
}

func TestAggressivePreset_EmptyGroupTakesAll(t *testing.T) {
	positions := []domain.Position{pos("A", 100, "Energy", ""), pos("B", 300, "Materials", "")}

	p, err := newService().Preset(PresetAggressive, positions, usd())
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"A": 25.0, "B": 75.0}, p.TargetWeights)
}

func TestAIPreset_RespectsMinimumWeight(t *testing.T) {
	positions := []domain.Position{
		pos("BIG", 9700, "Energy", ""),
		pos("SMALL", 100, "Energy", ""),
		pos("TINY", 200, "Energy", ""),
	}
	// SMALL is down 50%
	positions[1].AveragePrice = 200

	p, err := newService().Preset(PresetAI, positions, usd())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, p.TargetWeights["SMALL"], 5.0)
	assert.GreaterOrEqual(t, p.TargetWeights["TINY"], 5.0)
	assert.Equal(t, 1000, SumTenths(p.TargetWeights))
}

func TestApplyFloor(t *testing.T) {
	got := applyFloor(map[string]float64{"A": 90, "B": 8, "C": 2}, 5)
	assert.InDelta(t, 5.0, got["C"], 1e-9)
	assert.InDelta(t, 95*90.0/98, got["A"], 1e-9)

	equal := applyFloor(map[string]float64{"A": 90, "B": 10}, 60)
	assert.Equal(t, 50.0, equal["A"])
}

func TestReturnMultiplier(t *testing.T) {
	tests := []struct {
		rate     float64
		expected float64
	}{
		{25, 0.35}, {20, 0.35}, {15, 0.20}, {0, 0.05}, {-5, -0.05}, {-5.01, -0.15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ReturnMultiplier(tt.rate), "rate %v", tt.rate)
	}
}

func TestMinimumWeight(t *testing.T) {
	assert.Equal(t, 5.0, MinimumWeight(5))
	assert.Equal(t, 3.0, MinimumWeight(6))
}

func TestPreset_Unknown(t *testing.T) {
	_, err := newService().Preset("yolo", samplePortfolio(), usd())
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	svc := newService()
	positions := []domain.Position{pos("A", 700, "", ""), pos("B", 300, "", "")}
	preset, err := svc.Preset(PresetEqual, positions, usd())
	require.NoError(t, err)

	rec := svc.Recommend(positions, preset, usd())

	require.Len(t, rec.Actions, 2)
	assert.Equal(t, 1000.0, rec.TotalValue)

	bySymbol := map[string]ActionItem{}
	for _, a := range rec.Actions {
		bySymbol[a.Symbol] = a
	}
	assert.Equal(t, ActionSell, bySymbol["A"].Action)
	assert.InDelta(t, -200.0, bySymbol["A"].Amount, 1e-9)
	assert.Equal(t, ActionBuy, bySymbol["B"].Action)
	assert.InDelta(t, 200.0, bySymbol["B"].Amount, 1e-9)
	assert.Len(t, rec.Suggestions(), 2)
}

func TestRecommend_HoldWithinEpsilon(t *testing.T) {
	svc := newService()
	positions := []domain.Position{pos("A", 500, "", ""), pos("B", 500, "", "")}
	preset, err := svc.Preset(PresetCurrent, positions, usd())
	require.NoError(t, err)

	rec := svc.Recommend(positions, preset, usd())

	for _, a := range rec.Actions {
		assert.Equal(t, ActionHold, a.Action)
		assert.Equal(t, 0.0, a.Amount)
	}
	assert.Empty(t, rec.Suggestions())
}

func TestAggregate_MergesAndConverts(t *testing.T) {
	fx := currency.NewNormalizer(domain.CurrencyKRW, &currency.Rate{Base: domain.CurrencyUSD, Quote: domain.CurrencyKRW, Rate: 1000})
	positions := []domain.Position{
		{Symbol: "AAPL", Market: domain.MarketUS, Shares: 1, CurrentPrice: 120, AveragePrice: 100},
		{Symbol: "AAPL", Market: domain.MarketUS, Shares: 1, CurrentPrice: 120, AveragePrice: 100},
		{Symbol: "005930", Market: domain.MarketKR, Shares: 2, CurrentPrice: 70000, Sector: "Utilities"},
	}

	hs := Aggregate(positions, fx)

	require.Len(t, hs, 2)
	assert.Equal(t, "005930", hs[0].Symbol)
	assert.True(t, hs[0].Defensive)
	assert.Equal(t, 240000.0, hs[1].Value)
	assert.InDelta(t, 20.0, hs[1].ReturnRate, 1e-9)
}

func TestRecommend_SkipsUnpricedPositions(t *testing.T) {
	svc := newService()
	unpriced := domain.Position{Symbol: "XYZ", Market: domain.MarketUS, Shares: 10, AveragePrice: 100, TotalInvested: 1000}
	positions := []domain.Position{pos("A", 500, "", ""), pos("B", 500, "", ""), unpriced}
	preset, err := svc.Preset(PresetEqual, positions, usd())
	require.NoError(t, err)

	rec := svc.Recommend(positions, preset, usd())

	assert.NotContains(t, preset.TargetWeights, "XYZ")
	assert.Equal(t, []string{"XYZ"}, rec.Unpriced)
	assert.Equal(t, 1000.0, rec.TotalValue)
	assert.Empty(t, rec.Suggestions())
}
