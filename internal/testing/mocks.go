package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/prices"
)

// MockPriceSource is an in-memory prices.Source keyed by symbol
type MockPriceSource struct {
	mu     sync.Mutex
	series map[string][]prices.Point
	err    error
	calls  int
}

// NewMockPriceSource creates a new mock price source
func NewMockPriceSource() *MockPriceSource {
	return &MockPriceSource{series: make(map[string][]prices.Point)}
}

// SetSeries sets the points returned for symbol
func (m *MockPriceSource) SetSeries(symbol string, points []prices.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[symbol] = points
}

// SetError makes every fetch fail with err
func (m *MockPriceSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many fetches were made
func (m *MockPriceSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// DailySeries returns the configured points dated on or after since
func (m *MockPriceSource) DailySeries(ctx context.Context, symbol string, market domain.Market, since time.Time) ([]prices.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	points, ok := m.series[symbol]
	if !ok {
		return nil, fmt.Errorf("no series for %s", symbol)
	}

	out := make([]prices.Point, 0, len(points))
	for _, p := range points {
		if !p.Date.Before(domain.Day(since)) {
			out = append(out, p)
		}
	}
	return out, nil
}

// MockRateSource is an in-memory currency.RateSource
type MockRateSource struct {
	mu    sync.Mutex
	rates map[string]float64
	err   error
}

// NewMockRateSource creates a new mock rate source
func NewMockRateSource() *MockRateSource {
	return &MockRateSource{rates: make(map[string]float64)}
}

// SetRate sets the rate for base/quote
func (m *MockRateSource) SetRate(base, quote domain.Currency, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[string(base)+"/"+string(quote)] = rate
}

// SetError makes every lookup fail with err
func (m *MockRateSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SpotRate returns the configured rate or currency.ErrNoRate
func (m *MockRateSource) SpotRate(ctx context.Context, base, quote domain.Currency) (currency.Rate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return currency.Rate{}, m.err
	}
	rate, ok := m.rates[string(base)+"/"+string(quote)]
	if !ok {
		return currency.Rate{}, currency.ErrNoRate
	}
	return currency.Rate{Base: base, Quote: quote, Rate: rate, Source: "mock"}, nil
}
