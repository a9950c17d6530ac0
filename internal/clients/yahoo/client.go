// Package yahoo reads daily closes and FX spot quotes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public chart endpoint host
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	// DefaultRateLimit is the request budget per second
	DefaultRateLimit = 5

	// SourceName labels rates fetched here
	SourceName = "yahoo"
)

// Client is a Yahoo Finance chart API client
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client. requestsPerSecond <= 0 uses DefaultRateLimit.
func NewClient(baseURL string, requestsPerSecond int, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRateLimit
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		now:     time.Now,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse is the subset of the chart API response we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				GMTOffset          int64   `json:"gmtoffset"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailySeries returns daily closes for symbol since the given date. Null bars
// (holidays, halts) are skipped. Dates are the exchange-local trading day.
func (c *Client) DailySeries(ctx context.Context, symbol string, market domain.Market, since time.Time) ([]prices.Point, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(domain.Day(since).Unix(), 10))
	params.Set("period2", strconv.FormatInt(c.now().Unix(), 10))
	params.Set("events", "div,split")

	chart, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]prices.Point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		date := domain.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		points = append(points, prices.Point{Date: date, Close: *closes[i]})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("market", string(market)).
		Int("points", len(points)).
		Msg("Fetched daily series")
	return prices.NewSeries(points), nil
}

// SpotRate returns the latest quote for the base/quote pair, e.g. USD/KRW from "KRW=X".
func (c *Client) SpotRate(ctx context.Context, base, quote domain.Currency) (currency.Rate, error) {
	if base == quote {
		return currency.Rate{Base: base, Quote: quote, Rate: 1, Source: SourceName}, nil
	}

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "5d")

	chart, err := c.fetchChart(ctx, FXSymbol(base, quote), params)
	if err != nil {
		return currency.Rate{}, err
	}

	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return currency.Rate{}, fmt.Errorf("yahoo: no quote for %s/%s", base, quote)
	}
	return currency.Rate{Base: base, Quote: quote, Rate: price, Source: SourceName}, nil
}

// FXSymbol is the chart symbol of a currency pair. USD-based pairs use the short form.
func FXSymbol(base, quote domain.Currency) string {
	if base == domain.CurrencyUSD {
		return string(quote) + "=X"
	}
	return string(base) + string(quote) + "=X"
}

func (c *Client) fetchChart(ctx context.Context, symbol string, params url.Values) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo: failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	c.log.Debug().
		Str("symbol", symbol).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("Chart request")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d for %s", resp.StatusCode, symbol)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}
	return &chart, nil
}
