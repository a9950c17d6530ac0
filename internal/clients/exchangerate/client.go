// Package exchangerate fetches spot rates from exchangerate-api.com with a persistent cache.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public v4 endpoint
const DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// Source labels
const (
	SourceAPI   = "exchangerate-api"
	SourceCache = "cache"
)

// Client for exchangerate-api.com
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new exchangerate-api.com client.
// cacheRepo is optional - if nil, caching is disabled. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "exchangerate-api").Logger(),
		cacheRepo: cacheRepo,
	}
}

// cachedExchangeRate is the structure stored in the cache
type cachedExchangeRate struct {
	Rate      float64   `msgpack:"rate"`
	FetchedAt time.Time `msgpack:"fetched_at"`
}

// SpotRate returns how many units of quote one unit of base buys. A fresh cache
// entry short-circuits the request. When the API fails, a stale cached rate is
// returned with Source "cache".
func (c *Client) SpotRate(ctx context.Context, base, quote domain.Currency) (currency.Rate, error) {
	if base == quote {
		return currency.Rate{Base: base, Quote: quote, Rate: 1, Source: SourceAPI}, nil
	}

	cacheKey := string(base) + ":" + string(quote)

	if c.cacheRepo != nil {
		var cached cachedExchangeRate
		ok, err := c.cacheRepo.GetIfFresh(clientdata.TableExchangeRate, cacheKey, &cached)
		if err == nil && ok && cached.Rate > 0 {
			c.log.Debug().
				Str("pair", cacheKey).
				Float64("rate", cached.Rate).
				Msg("Cache hit")
			return currency.Rate{Base: base, Quote: quote, Rate: cached.Rate, Source: SourceAPI}, nil
		}
	}

	rate, err := c.fetch(ctx, base, quote)
	if err != nil {
		if ctx.Err() != nil {
			return currency.Rate{}, err
		}
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Err(err).
				Str("pair", cacheKey).
				Float64("rate", stale).
				Msg("API failed, using stale cached rate")
			return currency.Rate{Base: base, Quote: quote, Rate: stale, Source: SourceCache}, nil
		}
		return currency.Rate{}, err
	}

	if c.cacheRepo != nil {
		cached := cachedExchangeRate{Rate: rate, FetchedAt: time.Now().UTC()}
		if err := c.cacheRepo.Store(clientdata.TableExchangeRate, cacheKey, cached, clientdata.TTLExchangeRate); err != nil {
			c.log.Warn().Err(err).Str("pair", cacheKey).Msg("Failed to cache exchange rate")
		}
	}

	c.log.Info().
		Str("pair", cacheKey).
		Float64("rate", rate).
		Msg("Fetched rate")

	return currency.Rate{Base: base, Quote: quote, Rate: rate, Source: SourceAPI}, nil
}

func (c *Client) fetch(ctx context.Context, base, quote domain.Currency) (float64, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, base)
	c.log.Debug().Str("url", url).Msg("Fetching rates")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	rate, exists := result.Rates[string(quote)]
	if !exists || rate <= 0 {
		return 0, fmt.Errorf("rate not found for %s->%s", base, quote)
	}
	return rate, nil
}

// getStaleFromCache retrieves cached rate even if expired.
func (c *Client) getStaleFromCache(cacheKey string) (float64, bool) {
	if c.cacheRepo == nil {
		return 0, false
	}

	var cached cachedExchangeRate
	ok, err := c.cacheRepo.Get(clientdata.TableExchangeRate, cacheKey, &cached)
	if err != nil || !ok || cached.Rate <= 0 {
		return 0, false
	}
	return cached.Rate, true
}
