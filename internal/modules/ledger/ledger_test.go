package ledger

import (
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleLog() []domain.Transaction {
	return []domain.Transaction{
		{Symbol: "AAPL", Market: domain.MarketUS, Type: domain.TransactionSell, Date: day(2024, 3, 1), Shares: 4, Price: 180, Fee: 1},
		{Symbol: "AAPL", Market: domain.MarketUS, Type: domain.TransactionBuy, Date: day(2024, 1, 10), Shares: 10, Price: 150},
		{Symbol: "AAPL", Market: domain.MarketUS, Type: domain.TransactionDividend, Date: day(2024, 2, 15), Amount: 2.4},
		{Symbol: "AAPL", Market: domain.MarketUS, Type: domain.TransactionBuy, Date: day(2024, 2, 1), Shares: 10, Price: 170},
	}
}

func TestSharesAsOf(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		expected float64
	}{
		{"before first trade", day(2024, 1, 1), 0},
		{"after first buy", day(2024, 1, 10), 10},
		{"dividend ignored", day(2024, 2, 20), 20},
		{"after sell", day(2024, 3, 1), 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SharesAsOf(sampleLog(), tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSharesAsOf_NegativeIsError(t *testing.T) {
	txs := []domain.Transaction{
		{Symbol: "X", Type: domain.TransactionBuy, Date: day(2024, 1, 1), Shares: 1},
		{Symbol: "X", Type: domain.TransactionSell, Date: day(2024, 1, 2), Shares: 3},
	}

	shares, err := SharesAsOf(txs, day(2024, 1, 5))

	assert.ErrorIs(t, err, ErrNegativeShares)
	assert.Equal(t, -2.0, shares)
}

func TestEarliestDate(t *testing.T) {
	_, ok := EarliestDate(nil)
	assert.False(t, ok)

	got, ok := EarliestDate(sampleLog())
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 10), got)
}

func TestBySymbol(t *testing.T) {
	txs := append(sampleLog(), domain.Transaction{Symbol: "MSFT", Type: domain.TransactionBuy, Date: day(2024, 1, 1), Shares: 1})

	groups := BySymbol(txs)

	assert.Len(t, groups["AAPL"], 4)
	assert.Len(t, groups["MSFT"], 1)
}

func TestBuildHoldings_AverageCost(t *testing.T) {
	holdings, err := BuildHoldings(sampleLog(), day(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, holdings, 1)

	h := holdings[0]
	assert.Equal(t, 16.0, h.Shares)
	assert.InDelta(t, 160.0, h.AveragePrice, 1e-9)
	assert.InDelta(t, 2560.0, h.Invested, 1e-9)
	// 4 * (180 - 160) - 1 fee
	assert.InDelta(t, 79.0, h.RealizedPL, 1e-9)
	assert.InDelta(t, 2.4, h.Dividends, 1e-9)
	assert.Equal(t, domain.CurrencyUSD, h.Currency)
	assert.Equal(t, day(2024, 1, 10), h.FirstDate)

	pos := h.Position(200)
	assert.InDelta(t, 3200.0, pos.TotalValue, 1e-9)
	assert.InDelta(t, 25.0, pos.ReturnRate, 1e-9)
}

func TestBuildHoldings_InfersKRXCurrency(t *testing.T) {
	txs := []domain.Transaction{
		{Symbol: "005930", Type: domain.TransactionBuy, Date: day(2024, 1, 2), Shares: 10, Price: 70000},
	}

	holdings, err := BuildHoldings(txs, day(2024, 6, 1))
	require.NoError(t, err)
	require.Len(t, holdings, 1)

	assert.Equal(t, domain.MarketKR, holdings[0].Market)
	assert.Equal(t, domain.CurrencyKRW, holdings[0].Currency)
	assert.Equal(t, domain.CurrencyKRW, holdings[0].Position(71000).ListingCurrency())
}

func TestHolding_PositionWithoutPrice(t *testing.T) {
	h := Holding{Symbol: "AAPL", Shares: 10, AveragePrice: 100, Invested: 1000}

	pos := h.Position(0)

	assert.Equal(t, 1000.0, pos.TotalInvested)
	assert.Equal(t, 0.0, pos.ReturnRate, "no price means no return, not -100%")
	assert.Equal(t, 0.0, pos.ProfitLoss)
}

func TestBuildHoldings_AsOfExcludesLater(t *testing.T) {
	holdings, err := BuildHoldings(sampleLog(), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, 10.0, holdings[0].Shares)

	none, err := BuildHoldings(sampleLog(), day(2023, 12, 31))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBuildHoldings_Oversell(t *testing.T) {
	txs := []domain.Transaction{
		{Symbol: "X", Type: domain.TransactionSell, Date: day(2024, 1, 2), Shares: 3},
	}

	_, err := BuildHoldings(txs, day(2024, 1, 5))

	assert.ErrorIs(t, err, ErrNegativeShares)
}

func TestSummarize(t *testing.T) {
	txs := append(sampleLog(),
		domain.Transaction{Symbol: "005930", Type: domain.TransactionBuy, Date: day(2024, 4, 2), Shares: 3, Price: 70000, Fee: 100},
	)

	s := Summarize(txs)

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 2, s.Symbols)
	assert.Equal(t, 3, s.ByType[domain.TransactionBuy])
	assert.Equal(t, 1, s.ByType[domain.TransactionSell])
	assert.Equal(t, 1, s.ByType[domain.TransactionDividend])

	usd := s.ByCurrency[domain.CurrencyUSD]
	assert.InDelta(t, 3200.0, usd.Bought, 1e-9)
	assert.InDelta(t, 720.0, usd.Sold, 1e-9)
	assert.InDelta(t, 2.4, usd.Dividends, 1e-9)
	assert.InDelta(t, 1.0, usd.Fees, 1e-9)

	krw := s.ByCurrency[domain.CurrencyKRW]
	assert.InDelta(t, 210000.0, krw.Bought, 1e-9)
	assert.InDelta(t, 100.0, krw.Fees, 1e-9)

	require.NotNil(t, s.FirstDate)
	require.NotNil(t, s.LastDate)
	assert.Equal(t, day(2024, 1, 10), *s.FirstDate)
	assert.Equal(t, day(2024, 4, 2), *s.LastDate)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.Count)
	assert.Nil(t, s.FirstDate)
	assert.Empty(t, s.ByCurrency)
}
