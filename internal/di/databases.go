package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/newswatch/internal/clientdata"
	"github.com/aristath/newswatch/internal/config"
	"github.com/aristath/newswatch/internal/database"
)

const redisKeyPrefix = "newswatch:"

// InitializeCache opens the cache store: redis when CacheURL is set,
// otherwise the sqlite cache file in DataDir with its schema applied.
func InitializeCache(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	if cfg.CacheURL != "" {
		store, err := clientdata.NewRedisStore(cfg.CacheURL, redisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		container.RedisStore = store
		container.CacheStore = store

		log.Info().Msg("Redis cache initialized")
		return container, nil
	}

	// cache.db - request quotas and other short-lived client data
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}

	if err := cacheDB.Migrate(); err != nil {
		cacheDB.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", cacheDB.Name(), err)
	}

	container.CacheDB = cacheDB
	container.CacheStore = clientdata.NewRepository(cacheDB.Conn())

	log.Info().Str("path", cacheDB.Path()).Msg("Cache database initialized and schema applied")

	return container, nil
}
