// Package di provides dependency injection wiring and initialization.
//
// The Container is the single source of truth for every long-lived component
// and is handed to the server and scheduler by cmd/server.
package di

import (
	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/exchangerate"
	"github.com/aristath/folio/internal/clients/yahoo"
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/modules/analytics"
	"github.com/aristath/folio/internal/modules/charts"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	ClientDataDB *database.DB

	// Repositories
	ClientDataRepo *clientdata.Repository
	SeriesArchive  *clientdata.SeriesArchive

	// Clients
	YahooClient        *yahoo.Client
	ExchangeRateClient *exchangerate.Client

	// Services
	PriceCache *prices.Cache
	PriceStore *prices.Store
	Rates      *currency.TieredRates
	Analytics  *analytics.Service
	Charts     *charts.Service

	Scheduler *scheduler.Scheduler
}

// Close releases the databases held by the container
func (c *Container) Close() error {
	if c.ClientDataDB == nil {
		return nil
	}
	return c.ClientDataDB.Close()
}

// JobInstances holds the scheduled jobs for manual triggering via API
type JobInstances struct {
	PrunePriceCache   scheduler.Job
	CleanupClientData scheduler.Job
	WALCheckpoint     scheduler.Job
	CheckDatabases    scheduler.Job
}

// All returns every job instance
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{j.PrunePriceCache, j.CleanupClientData, j.WALCheckpoint, j.CheckDatabases}
}
