package performance

import (
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newCalculator() *Calculator {
	return NewCalculator(zerolog.New(nil).Level(zerolog.Disabled))
}

func TestEffectiveStart(t *testing.T) {
	now := day(2024, 6, 15)
	inception := day(2024, 6, 10)

	tests := []struct {
		id       PeriodID
		expected time.Time
	}{
		{Period1D, day(2024, 6, 14)},
		{Period1W, day(2024, 6, 10)},
		{Period1M, day(2024, 6, 10)},
		{PeriodYTD, day(2024, 6, 10)},
		{PeriodALL, day(2024, 6, 10)},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			assert.Equal(t, tt.expected, EffectiveStart(tt.id, now, inception))
		})
	}

	assert.Equal(t, day(2024, 1, 1), NominalStart(PeriodYTD, now, inception))
	assert.Equal(t, day(2023, 6, 15), NominalStart(Period1Y, now, inception))
}

func TestParsePeriodID(t *testing.T) {
	id, ok := ParsePeriodID("YTD")
	assert.True(t, ok)
	assert.Equal(t, PeriodYTD, id)

	_, ok = ParsePeriodID("5Y")
	assert.False(t, ok)
}

func TestCalculate_ReturnsAndAnnualization(t *testing.T) {
	now := day(2024, 6, 15)
	in := Input{
		Positions: []domain.Position{
			{Symbol: "AAPL", Market: domain.MarketUS, Currency: domain.CurrencyUSD, Shares: 10, CurrentPrice: 110},
		},
		Transactions: []domain.Transaction{
			{Symbol: "AAPL", Type: domain.TransactionBuy, Date: day(2024, 1, 2), Shares: 10, Price: 90, Currency: domain.CurrencyUSD},
		},
		Series: map[string]prices.Series{
			"AAPL": {
				{Date: day(2024, 1, 2), Close: 90},
				{Date: day(2024, 6, 7), Close: 100},
				{Date: day(2024, 6, 14), Close: 108},
			},
		},
		FX:  currency.NewNormalizer(domain.CurrencyUSD, nil),
		Now: now,
	}

	periods, err := newCalculator().Calculate(in)
	require.NoError(t, err)
	require.Len(t, periods, len(PeriodIDs))

	week := periods[Period1W]
	assert.Equal(t, day(2024, 6, 8), week.StartDate)
	assert.Equal(t, 1000.0, week.StartValue)
	assert.Equal(t, 1100.0, week.EndValue)
	require.NotNil(t, week.ReturnRate)
	assert.InDelta(t, 10.0, *week.ReturnRate, 1e-9)
	require.NotNil(t, week.AnnualizedReturn)
	assert.Greater(t, *week.AnnualizedReturn, 10.0)

	all := periods[PeriodALL]
	assert.Equal(t, day(2024, 1, 2), all.StartDate)
	assert.Equal(t, 900.0, all.StartValue)
}

func TestCalculate_NoPriorHoldingsGivesNullReturn(t *testing.T) {
	now := day(2024, 6, 15)
	in := Input{
		Positions: []domain.Position{
			{Symbol: "AAPL", Market: domain.MarketUS, Shares: 10, CurrentPrice: 110},
		},
		Transactions: []domain.Transaction{
			{Symbol: "AAPL", Type: domain.TransactionBuy, Date: day(2024, 1, 2), Shares: 10, Price: 90},
			{Symbol: "AAPL", Type: domain.TransactionSell, Date: day(2024, 1, 3), Shares: 10, Price: 95},
			{Symbol: "AAPL", Type: domain.TransactionBuy, Date: day(2024, 6, 15), Shares: 10, Price: 100},
		},
		Series: map[string]prices.Series{"AAPL": {{Date: day(2024, 6, 14), Close: 100}}},
		Now:    now,
	}
	in.FX = currency.NewNormalizer(domain.CurrencyUSD, nil)

	periods, err := newCalculator().Calculate(in)
	require.NoError(t, err)

	for _, id := range []PeriodID{Period1D, Period1M, PeriodALL} {
		p := periods[id]
		assert.Equal(t, 0.0, p.StartValue, id)
		assert.Nil(t, p.ReturnRate, id)
		assert.Nil(t, p.AnnualizedReturn, id)
	}
}

func TestCalculate_UnpricedSymbolIsSkipped(t *testing.T) {
	now := day(2024, 6, 15)
	in := Input{
		Positions: []domain.Position{
			{Symbol: "005930", Market: domain.MarketKR, Shares: 1, CurrentPrice: 0},
		},
		Transactions: []domain.Transaction{
			{Symbol: "005930", Market: domain.MarketKR, Type: domain.TransactionBuy, Date: day(2024, 1, 2), Shares: 1, Price: 70000},
		},
		FX:  currency.NewNormalizer(domain.CurrencyKRW, nil),
		Now: now,
	}

	periods, err := newCalculator().Calculate(in)
	require.NoError(t, err)

	p := periods[Period1M]
	assert.Equal(t, []string{"005930"}, p.UnpricedSymbols)
	assert.Nil(t, p.ReturnRate)
	assert.Equal(t, 0.0, p.EndValue)
}

func TestCalculate_ConvertsToBase(t *testing.T) {
	now := day(2024, 6, 15)
	rate := &currency.Rate{Base: domain.CurrencyUSD, Quote: domain.CurrencyKRW, Rate: 1000}
	in := Input{
		Positions: []domain.Position{
			{Symbol: "AAPL", Market: domain.MarketUS, Currency: domain.CurrencyUSD, Shares: 1, CurrentPrice: 0},
		},
		Transactions: []domain.Transaction{
			{Symbol: "AAPL", Type: domain.TransactionBuy, Date: day(2024, 1, 2), Shares: 1, Price: 90},
		},
		Series: map[string]prices.Series{"AAPL": {{Date: day(2024, 1, 2), Close: 100}, {Date: day(2024, 6, 14), Close: 120}}},
		FX:     currency.NewNormalizer(domain.CurrencyKRW, rate),
		Now:    now,
	}

	p, err := newCalculator().CalculateOne(PeriodALL, in)
	require.NoError(t, err)

	assert.Equal(t, domain.CurrencyKRW, p.Currency)
	assert.Equal(t, 100000.0, p.StartValue)
	assert.Equal(t, 120000.0, p.EndValue, "falls back to the most recent close")
}

func TestCalculate_KRXCodeWithoutMarketIsKRW(t *testing.T) {
	now := day(2024, 6, 15)
	rate := &currency.Rate{Base: domain.CurrencyUSD, Quote: domain.CurrencyKRW, Rate: 1000}
	in := Input{
		Transactions: []domain.Transaction{
			{Symbol: "005930", Type: domain.TransactionBuy, Date: day(2024, 1, 2), Shares: 10, Price: 70000},
		},
		Series: map[string]prices.Series{"005930": {{Date: day(2024, 1, 2), Close: 70000}}},
		FX:     currency.NewNormalizer(domain.CurrencyKRW, rate),
		Now:    now,
	}

	p, err := newCalculator().CalculateOne(PeriodALL, in)
	require.NoError(t, err)

	assert.Equal(t, 700000.0, p.StartValue, "KRX code is valued in KRW, not USD")
}

func TestCalculate_NegativeSharesPropagates(t *testing.T) {
	in := Input{
		Transactions: []domain.Transaction{
			{Symbol: "X", Type: domain.TransactionSell, Date: day(2024, 1, 2), Shares: 1},
		},
		Now: day(2024, 6, 15),
	}

	_, err := newCalculator().Calculate(in)

	assert.ErrorIs(t, err, ledger.ErrNegativeShares)
}
