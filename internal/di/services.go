package di

import (
	"fmt"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/exchangerate"
	"github.com/aristath/folio/internal/clients/yahoo"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/modules/analytics"
	"github.com/aristath/folio/internal/modules/charts"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/rs/zerolog"
)

// InitializeServices creates repositories, clients and services on top of the databases
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.ClientDataDB == nil {
		return fmt.Errorf("container databases must be initialized first")
	}

	// Repositories
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())
	container.SeriesArchive = clientdata.NewSeriesArchive(container.ClientDataRepo)

	// Clients
	container.YahooClient = yahoo.NewClient(cfg.YahooBaseURL, cfg.YahooRateLimit, log)
	container.ExchangeRateClient = exchangerate.NewClient(cfg.ExchangeRateURL, container.ClientDataRepo, log)

	// Prices: memory cache in front of the archive in front of Yahoo
	container.PriceCache = prices.NewCache(cfg.PriceCacheTTL)
	container.PriceStore = prices.NewStore(container.YahooClient, container.PriceCache, container.SeriesArchive, log)

	// Rates: exchangerate-api first (with its own stale cache), then Yahoo spot
	container.Rates = currency.NewTieredRates(log,
		currency.NamedSource{Name: exchangerate.SourceAPI, Source: container.ExchangeRateClient},
		currency.NamedSource{Name: yahoo.SourceName, Source: container.YahooClient},
	)

	container.Analytics = analytics.NewService(container.PriceStore, container.Rates, analytics.Settings{
		BaseCurrency: cfg.BaseCurrency,
		RiskFreeRate: cfg.Analytics.RiskFreeRate,
		TaxRate:      cfg.Analytics.TaxRate,
		HoldEpsilon:  cfg.Analytics.Rebalancing.HoldEpsilon,
		Thresholds:   cfg.Analytics.Alerts,
	}, log)
	container.Charts = charts.NewService(container.PriceStore, log)

	log.Info().
		Str("base_currency", string(cfg.BaseCurrency)).
		Dur("price_cache_ttl", cfg.PriceCacheTTL).
		Msg("Services initialized")
	return nil
}
