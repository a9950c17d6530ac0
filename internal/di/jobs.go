package di

import (
	"fmt"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/scheduler"
	"github.com/rs/zerolog"
)

// Job schedules (cron with a leading seconds field)
const (
	SchedulePrunePriceCache   = "@every 10m"
	ScheduleCleanupClientData = "@daily"
	ScheduleWALCheckpoint     = "@hourly"
	ScheduleCheckDatabases    = "0 30 3 * * *"
)

// RegisterJobs creates the maintenance jobs and registers them with the scheduler
func RegisterJobs(container *Container, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}
	if container.Scheduler == nil {
		container.Scheduler = scheduler.New(log)
	}

	instances := &JobInstances{
		PrunePriceCache:   prices.NewPruneJob(container.PriceCache, log),
		CleanupClientData: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		WALCheckpoint:     database.NewCheckpointJob(container.ClientDataDB, log),
		CheckDatabases:    scheduler.NewCheckDatabasesJob(log, container.ClientDataDB),
	}

	schedules := []struct {
		spec string
		job  scheduler.Job
	}{
		{SchedulePrunePriceCache, instances.PrunePriceCache},
		{ScheduleCleanupClientData, instances.CleanupClientData},
		{ScheduleWALCheckpoint, instances.WALCheckpoint},
		{ScheduleCheckDatabases, instances.CheckDatabases},
	}
	for _, s := range schedules {
		if err := container.Scheduler.AddJob(s.spec, s.job); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", s.job.Name(), err)
		}
	}

	log.Info().Int("jobs", len(schedules)).Msg("Jobs registered")
	return instances, nil
}
