package clientdata

import (
	"time"

	"github.com/rs/zerolog"
)

// CleanupJob drops rows that expired longer ago than their table's stale retention.
// Rows inside the window stay readable through Repository.Get when upstream APIs fail.
type CleanupJob struct {
	repo      *Repository
	retention map[string]time.Duration
	log       zerolog.Logger
}

// NewCleanupJob creates a cleanup job using StaleRetention.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	retention := make(map[string]time.Duration, len(StaleRetention))
	for table, d := range StaleRetention {
		retention[table] = d
	}

	return &CleanupJob{
		repo:      repo,
		retention: retention,
		log:       log.With().Str("job", "client_data_cleanup").Logger(),
	}
}

// WithRetention overrides the stale retention of one table.
func (j *CleanupJob) WithRetention(table string, d time.Duration) *CleanupJob {
	j.retention[table] = d
	return j
}

// Run prunes every client data table.
func (j *CleanupJob) Run() error {
	now := j.repo.now()

	var total int64
	for _, table := range AllTables {
		keep := j.retention[table]
		deleted, err := j.repo.DeleteExpiredBefore(table, now.Add(-keep))
		if err != nil {
			j.log.Error().Err(err).Str("table", table).Msg("Failed to prune client data")
			return err
		}
		if deleted == 0 {
			continue
		}
		total += deleted

		remaining, err := j.repo.Count(table)
		if err != nil {
			return err
		}
		j.log.Info().
			Str("table", table).
			Int64("deleted", deleted).
			Int("remaining", remaining).
			Dur("retention", keep).
			Msg("Pruned stale client data")
	}

	j.log.Debug().Int64("total_deleted", total).Msg("Client data cleanup completed")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "client_data_cleanup"
}
