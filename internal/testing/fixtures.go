package testing

import (
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/prices"
)

// NewPositionFixtures returns a small mixed-market portfolio with derived fields filled in
func NewPositionFixtures() []domain.Position {
	raw := []domain.Position{
		{Symbol: "AAPL", Market: domain.MarketUS, Currency: domain.CurrencyUSD, Shares: 10, AveragePrice: 150, CurrentPrice: 180, Sector: "Technology", AssetType: "stock"},
		{Symbol: "VTI", Market: domain.MarketUS, Currency: domain.CurrencyUSD, Shares: 5, AveragePrice: 200, CurrentPrice: 210, Sector: "ETF", AssetType: "etf"},
		{Symbol: "005930", Market: domain.MarketKR, Currency: domain.CurrencyKRW, Shares: 20, AveragePrice: 70000, CurrentPrice: 65000, Sector: "Technology", AssetType: "stock"},
	}

	positions := make([]domain.Position, len(raw))
	for i, p := range raw {
		p.TotalInvested = p.Shares * p.AveragePrice
		positions[i] = p.Recalculate()
	}
	return positions
}

// NewTransactionFixtures returns buys and sells consistent with NewPositionFixtures
func NewTransactionFixtures() []domain.Transaction {
	day := func(m time.Month, d int) time.Time {
		return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
	}

	return []domain.Transaction{
		{Symbol: "AAPL", Market: domain.MarketUS, Type: domain.TransactionBuy, Date: day(1, 10), Shares: 12, Price: 150, Currency: domain.CurrencyUSD},
		{Symbol: "AAPL", Market: domain.MarketUS, Type: domain.TransactionSell, Date: day(3, 4), Shares: 2, Price: 170, Currency: domain.CurrencyUSD},
		{Symbol: "VTI", Market: domain.MarketUS, Type: domain.TransactionBuy, Date: day(2, 1), Shares: 5, Price: 200, Currency: domain.CurrencyUSD},
		{Symbol: "005930", Market: domain.MarketKR, Type: domain.TransactionBuy, Date: day(1, 15), Shares: 20, Price: 70000, Currency: domain.CurrencyKRW},
	}
}

// LinearSeries returns one point per calendar day ending at end, rising by step from start
func LinearSeries(end time.Time, days int, start, step float64) []prices.Point {
	end = domain.Day(end)
	points := make([]prices.Point, days)
	for i := range points {
		points[i] = prices.Point{
			Date:  end.AddDate(0, 0, i-days+1),
			Close: start + step*float64(i),
		}
	}
	return points
}
