// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/alerts"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Directory holding the client-data cache (always absolute)
	Port            int
	LogLevel        string
	DevMode         bool
	BaseCurrency    domain.Currency
	PriceCacheTTL   time.Duration
	ExchangeRateURL string
	YahooBaseURL    string
	YahooRateLimit  int // requests per second
	AnalyticsFile   string
	Analytics       AnalyticsConfig
}

// AnalyticsConfig holds calculator settings read from the optional TOML file.
type AnalyticsConfig struct {
	RiskFreeRate float64           `toml:"risk_free_rate"` // annual, fraction
	TaxRate      float64           `toml:"tax_rate"`       // percent
	Alerts       alerts.Thresholds `toml:"alerts"`
	Rebalancing  RebalancingConfig `toml:"rebalancing"`
}

// RebalancingConfig holds the [rebalancing] table
type RebalancingConfig struct {
	HoldEpsilon float64 `toml:"hold_epsilon"` // percentage points
}

// DefaultAnalytics returns the calculator defaults
func DefaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		RiskFreeRate: 0.02,
		TaxRate:      22,
		Alerts:       alerts.DefaultThresholds(),
		Rebalancing:  RebalancingConfig{HoldEpsilon: 0.1},
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("FOLIO_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	base, err := domain.ParseCurrency(getEnv("FOLIO_BASE_CURRENCY", string(domain.CurrencyKRW)))
	if err != nil {
		return nil, fmt.Errorf("invalid FOLIO_BASE_CURRENCY: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("FOLIO_PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		BaseCurrency:    base,
		PriceCacheTTL:   getEnvAsDuration("PRICE_CACHE_TTL", 15*time.Minute),
		ExchangeRateURL: getEnv("EXCHANGERATE_API_URL", "https://api.exchangerate-api.com/v4/latest"),
		YahooBaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		YahooRateLimit:  getEnvAsInt("YAHOO_RATE_LIMIT", 5),
		AnalyticsFile:   getEnv("FOLIO_ANALYTICS_FILE", ""),
		Analytics:       DefaultAnalytics(),
	}

	if cfg.AnalyticsFile != "" {
		analytics, err := LoadAnalytics(cfg.AnalyticsFile)
		if err != nil {
			return nil, err
		}
		cfg.Analytics = analytics
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAnalytics reads a TOML analytics file. Keys absent from the file keep their defaults.
func LoadAnalytics(path string) (AnalyticsConfig, error) {
	cfg := DefaultAnalytics()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read analytics config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse analytics config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if _, err := domain.ParseCurrency(string(c.BaseCurrency)); err != nil {
		return fmt.Errorf("base currency: %w", err)
	}
	if c.PriceCacheTTL <= 0 {
		return errors.New("price cache TTL must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Analytics.TaxRate < 0 || c.Analytics.TaxRate > 100 {
		return fmt.Errorf("tax rate %.2f out of range", c.Analytics.TaxRate)
	}
	if c.Analytics.Rebalancing.HoldEpsilon < 0 {
		return errors.New("hold epsilon must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration returns the parsed duration. Unparseable values become 0 so Validate rejects them.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}
