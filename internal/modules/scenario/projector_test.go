package scenario

import (
	"testing"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPosition_MarketShift(t *testing.T) {
	pos := domain.Position{Symbol: "AAPL", Market: domain.MarketUS, Shares: 10, CurrentPrice: 150}

	got := ProjectPosition(pos, Config{Preset: PresetCustom, MarketShiftPct: 10})

	assert.InDelta(t, 165.0, got.ProjectedPrice, 1e-9)
	assert.InDelta(t, 1650.0, got.ProjectedValue, 1e-9)
	assert.InDelta(t, 150.0, got.ProjectedProfitLoss, 1e-9)
	assert.InDelta(t, 10.0, got.ProjectedReturnRate, 1e-9)
}

func TestProjectPosition_USDShiftOnlyAppliesToUSD(t *testing.T) {
	cfg := Config{Preset: PresetCustom, MarketShiftPct: 10, USDShiftPct: 10}

	us := ProjectPosition(domain.Position{Symbol: "AAPL", Market: domain.MarketUS, Shares: 1, CurrentPrice: 100}, cfg)
	kr := ProjectPosition(domain.Position{Symbol: "005930", Market: domain.MarketKR, Shares: 1, CurrentPrice: 100}, cfg)

	assert.InDelta(t, 121.0, us.ProjectedPrice, 1e-9)
	assert.InDelta(t, 110.0, kr.ProjectedPrice, 1e-9)
}

func TestProjectPosition_InvestedFallbacks(t *testing.T) {
	cfg := Config{Preset: PresetCustom}

	withTotal := ProjectPosition(domain.Position{Shares: 2, CurrentPrice: 10, AveragePrice: 4, TotalInvested: 9}, cfg)
	withAverage := ProjectPosition(domain.Position{Shares: 2, CurrentPrice: 10, AveragePrice: 4}, cfg)

	assert.Equal(t, 9.0, withTotal.Invested)
	assert.Equal(t, 8.0, withAverage.Invested)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		preset PresetID
		market float64
		usd    float64
	}{
		{PresetBullish, 10, 2},
		{PresetBearish, -15, -3},
		{PresetVolatile, -8, 5},
		{PresetCustom, 7, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			got, err := Resolve(Config{Preset: tt.preset, MarketShiftPct: 7, USDShiftPct: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.market, got.MarketShiftPct)
			assert.Equal(t, tt.usd, got.USDShiftPct)
		})
	}

	_, err := Resolve(Config{Preset: "moonshot"})
	assert.Error(t, err)
}

func TestProject_TotalsInBaseCurrency(t *testing.T) {
	fx := currency.NewNormalizer(domain.CurrencyKRW, &currency.Rate{
		Base: domain.CurrencyUSD, Quote: domain.CurrencyKRW, Rate: 1000, Source: "test",
	})
	positions := []domain.Position{
		{Symbol: "AAPL", Market: domain.MarketUS, Shares: 10, AveragePrice: 100, CurrentPrice: 100},
		{Symbol: "005930", Market: domain.MarketKR, Shares: 10, AveragePrice: 50000, CurrentPrice: 50000},
	}

	resp, err := NewProjector(logger.Nop()).Project(positions, Config{
		Preset:                 PresetCustom,
		MarketShiftPct:         10,
		AdditionalContribution: 100000,
	}, fx)

	require.NoError(t, err)
	assert.Equal(t, domain.CurrencyKRW, resp.Currency)
	assert.InDelta(t, 1_500_000.0, resp.CurrentValue, 1e-6)
	assert.InDelta(t, 1_750_000.0, resp.ProjectedValue, 1e-6)
	assert.InDelta(t, 150_000.0, resp.ProjectedProfitLoss, 1e-6)
	assert.InDelta(t, 10.0, resp.ProjectedReturnRate, 1e-9)
	assert.InDelta(t, 250_000.0, resp.ValueChange, 1e-6)
	assert.False(t, resp.FXDegraded)
	assert.Len(t, resp.Positions, 2)
}

func TestProject_UnpricedPositionStaysOutOfTotals(t *testing.T) {
	positions := []domain.Position{
		{Symbol: "XYZ", Market: domain.MarketKR, Shares: 10, AveragePrice: 100, TotalInvested: 1000},
		{Symbol: "005930", Market: domain.MarketKR, Shares: 10, AveragePrice: 100, CurrentPrice: 100},
	}

	resp, err := NewProjector(logger.Nop()).Project(positions, Config{Preset: PresetCustom}, currency.NewNormalizer(domain.CurrencyKRW, nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"XYZ"}, resp.Unpriced)
	assert.InDelta(t, 1000.0, resp.TotalInvested, 1e-9)
	assert.InDelta(t, 0.0, resp.ProjectedReturnRate, 1e-9)
	require.Len(t, resp.Positions, 2)
	assert.True(t, resp.Positions[0].Unpriced)
	assert.Equal(t, 0.0, resp.Positions[0].ProjectedReturnRate)
}

func TestProject_UnknownPreset(t *testing.T) {
	_, err := NewProjector(logger.Nop()).Project(nil, Config{Preset: "moonshot"}, currency.Normalizer{})
	assert.Error(t, err)
}
