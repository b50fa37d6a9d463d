package clientdata

import (
	"context"
	"time"

	"github.com/aristath/newswatch/internal/events"
	"github.com/rs/zerolog"
)

// Emitter publishes typed events.
type Emitter interface {
	EmitTyped(module string, data events.EventData)
}

// CleanupJob removes expired entries from the cache.
// It runs after every pipeline cycle.
type CleanupJob struct {
	store   Store
	timeout time.Duration
	emitter Emitter
	log     zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job.
func NewCleanupJob(store Store, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		store:   store,
		timeout: 10 * time.Second,
		log:     log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// SetEmitter attaches an event emitter, notified when entries are removed.
func (j *CleanupJob) SetEmitter(e Emitter) {
	j.emitter = e
}

// Run executes the cleanup job.
func (j *CleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.store.DeleteExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired cache entries")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired cache entries")
		if j.emitter != nil {
			j.emitter.EmitTyped("cache", &events.CacheCleanedData{Removed: deleted})
		}
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}
