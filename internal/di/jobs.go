package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/newswatch/internal/clientdata"
	"github.com/aristath/newswatch/internal/config"
	"github.com/aristath/newswatch/internal/database"
	"github.com/aristath/newswatch/internal/scheduler"
)

// InitializeScheduler creates the scheduler and registers the after-cycle jobs
func InitializeScheduler(container *Container, cfg *config.Config, log zerolog.Logger) error {
	cadence, err := scheduler.NewCadence(cfg.CheckInterval(), cfg.CheckSchedule)
	if err != nil {
		return fmt.Errorf("failed to create cadence: %w", err)
	}

	container.Scheduler = scheduler.New(container.Runner, cadence, cfg.StopTimeout(), log)
	container.Scheduler.SetEmitter(container.EventBus)

	container.CleanupJob = clientdata.NewCleanupJob(container.CacheStore, log)
	container.CleanupJob.SetEmitter(container.EventBus)
	container.Scheduler.AddJob(container.CleanupJob)

	// The sqlite cache file also gets integrity and WAL upkeep; redis manages itself
	if container.CacheDB != nil {
		container.MaintenanceJob = database.NewMaintenanceJob(container.CacheDB, log)
		container.Scheduler.AddJob(container.MaintenanceJob)
	}

	log.Info().Str("cadence", cadence.String()).Msg("Scheduler initialized")

	return nil
}
