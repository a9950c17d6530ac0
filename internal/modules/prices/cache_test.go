package prices

import (
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketOf(code string) domain.Market {
	return domain.Market(code)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func TestCache_FreshAndCoverage(t *testing.T) {
	clock := &fakeClock{now: day(2024, 6, 1)}
	c := NewCache(time.Minute, WithClock(clock.Now))

	c.Put("AAPL", domain.MarketUS, day(2024, 1, 1), []Point{{Date: day(2024, 1, 2), Close: 10}})

	_, ok := c.Get("AAPL", domain.MarketUS, day(2024, 3, 1))
	assert.True(t, ok, "later start is covered")

	_, ok = c.Get("AAPL", domain.MarketUS, day(2023, 12, 1))
	assert.False(t, ok, "earlier start is not covered")

	_, ok = c.Get("AAPL", domain.MarketKR, day(2024, 3, 1))
	assert.False(t, ok, "market is part of the key")
}

func TestCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: day(2024, 6, 1)}
	c := NewCache(time.Minute, WithClock(clock.Now))
	c.Put("AAPL", domain.MarketUS, day(2024, 1, 1), []Point{{Date: day(2024, 1, 2), Close: 10}})

	clock.now = clock.now.Add(2 * time.Minute)

	_, ok := c.Get("AAPL", domain.MarketUS, day(2024, 3, 1))
	assert.False(t, ok)

	stale, ok := c.Peek("AAPL", domain.MarketUS)
	require.True(t, ok)
	assert.Len(t, stale, 1)

	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 0, c.Len())
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache(time.Minute)
	put := c.Put("AAPL", domain.MarketUS, day(2024, 1, 1), []Point{{Date: day(2024, 1, 2), Close: 10}})
	put[0].Close = 1

	got, ok := c.Get("AAPL", domain.MarketUS, day(2024, 1, 1))
	require.True(t, ok)
	assert.Equal(t, 10.0, got[0].Close)
	got[0].Close = 99

	peeked, ok := c.Peek("AAPL", domain.MarketUS)
	require.True(t, ok)
	assert.Equal(t, 10.0, peeked[0].Close)
	peeked[0].Close = 42

	again, ok := c.Get("AAPL", domain.MarketUS, day(2024, 1, 1))
	require.True(t, ok)
	assert.Equal(t, 10.0, again[0].Close)
}

func TestCache_PutMerges(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put("AAPL", domain.MarketUS, day(2024, 1, 1), []Point{{Date: day(2024, 1, 2), Close: 10}})

	merged := c.Put("AAPL", domain.MarketUS, day(2024, 1, 1), []Point{
		{Date: day(2024, 1, 2), Close: 11},
		{Date: day(2024, 1, 3), Close: 12},
	})

	assert.Equal(t, []float64{11, 12}, merged.Closes())
}
