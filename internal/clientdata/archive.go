package clientdata

import (
	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/prices"
)

// SeriesArchive persists price series in the price_series table.
type SeriesArchive struct {
	repo *Repository
}

// NewSeriesArchive creates a price series archive backed by repo.
func NewSeriesArchive(repo *Repository) *SeriesArchive {
	return &SeriesArchive{repo: repo}
}

func seriesKey(symbol string, market domain.Market) string {
	return string(market) + ":" + symbol
}

// LoadSeries returns the archived series, empty when none is stored. Expired
// entries are still served; the cleanup job removes them.
func (a *SeriesArchive) LoadSeries(symbol string, market domain.Market) (prices.Series, error) {
	var series prices.Series
	if _, err := a.repo.Get(TablePriceSeries, seriesKey(symbol, market), &series); err != nil {
		return nil, err
	}
	for i := range series {
		series[i].Date = series[i].Date.UTC()
	}
	return series, nil
}

// SaveSeries stores the series.
func (a *SeriesArchive) SaveSeries(symbol string, market domain.Market, series prices.Series) error {
	return a.repo.Store(TablePriceSeries, seriesKey(symbol, market), series, TTLPriceSeries)
}
