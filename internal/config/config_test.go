package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv("FOLIO_DATA_DIR", dir)
	t.Setenv("FOLIO_PORT", "")
	t.Setenv("FOLIO_BASE_CURRENCY", "")
	t.Setenv("PRICE_CACHE_TTL", "")
	t.Setenv("FOLIO_ANALYTICS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, domain.CurrencyKRW, cfg.BaseCurrency)
	assert.Equal(t, 15*time.Minute, cfg.PriceCacheTTL)
	assert.Equal(t, DefaultAnalytics(), cfg.Analytics)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_DATA_DIR", t.TempDir())
	t.Setenv("FOLIO_PORT", "9090")
	t.Setenv("FOLIO_BASE_CURRENCY", "usd")
	t.Setenv("PRICE_CACHE_TTL", "1h")
	t.Setenv("YAHOO_RATE_LIMIT", "2")
	t.Setenv("FOLIO_ANALYTICS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, domain.CurrencyUSD, cfg.BaseCurrency)
	assert.Equal(t, time.Hour, cfg.PriceCacheTTL)
	assert.Equal(t, 2, cfg.YahooRateLimit)
}

func TestLoad_RejectsUnknownCurrency(t *testing.T) {
	t.Setenv("FOLIO_DATA_DIR", t.TempDir())
	t.Setenv("FOLIO_BASE_CURRENCY", "EUR")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadTTL(t *testing.T) {
	t.Setenv("FOLIO_DATA_DIR", t.TempDir())
	t.Setenv("FOLIO_BASE_CURRENCY", "")
	t.Setenv("PRICE_CACHE_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadAnalytics_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.toml")
	content := `
tax_rate = 15.4

[alerts]
drop_pct = -3.5

[rebalancing]
hold_epsilon = 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadAnalytics(path)
	require.NoError(t, err)

	assert.Equal(t, 0.02, cfg.RiskFreeRate)
	assert.Equal(t, 15.4, cfg.TaxRate)
	assert.Equal(t, -3.5, cfg.Alerts.DropPct)
	assert.Equal(t, 5.0, cfg.Alerts.SurgePct)
	assert.Equal(t, 25.0, cfg.Alerts.ConcentrationPct)
	assert.Equal(t, 0.5, cfg.Rebalancing.HoldEpsilon)
}

func TestLoadAnalytics_Errors(t *testing.T) {
	_, err := LoadAnalytics(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("tax_rate = [oops"), 0644))
	_, err = LoadAnalytics(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:          8080,
			BaseCurrency:  domain.CurrencyKRW,
			PriceCacheTTL: time.Minute,
			Analytics:     DefaultAnalytics(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad currency", func(c *Config) { c.BaseCurrency = "JPY" }, true},
		{"zero ttl", func(c *Config) { c.PriceCacheTTL = 0 }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"tax rate", func(c *Config) { c.Analytics.TaxRate = 120 }, true},
		{"epsilon", func(c *Config) { c.Analytics.Rebalancing.HoldEpsilon = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
