/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for every collaborator instance and is
 * handed to the command and the HTTP server.
 */
package di

import (
	"context"

	"github.com/aristath/newswatch/internal/analysis"
	"github.com/aristath/newswatch/internal/clientdata"
	"github.com/aristath/newswatch/internal/clients/alphavantage"
	"github.com/aristath/newswatch/internal/clients/llm"
	"github.com/aristath/newswatch/internal/clients/newsapi"
	"github.com/aristath/newswatch/internal/clients/telegram"
	"github.com/aristath/newswatch/internal/clients/yahoo"
	"github.com/aristath/newswatch/internal/database"
	"github.com/aristath/newswatch/internal/domain"
	"github.com/aristath/newswatch/internal/events"
	"github.com/aristath/newswatch/internal/news"
	"github.com/aristath/newswatch/internal/notification"
	"github.com/aristath/newswatch/internal/pipeline"
	"github.com/aristath/newswatch/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Cache (exactly one of CacheDB or RedisStore is set)
	CacheDB    *database.DB
	RedisStore *clientdata.RedisStore
	CacheStore clientdata.Store

	// Events
	EventBus *events.Bus

	// Clients
	YahooClient        *yahoo.Client
	AlphaVantageClient *alphavantage.Client
	NewsAPIClient      *newsapi.Client
	LLMClient          *llm.Client
	TelegramClient     *telegram.Client

	// Pipeline collaborators
	Watchlist  domain.WatchlistProvider
	NewsSource *news.Source
	Analyzer   *analysis.Analyzer
	Notifier   *notification.Notifier
	Runner     *pipeline.Runner

	// Scheduling
	Scheduler      *scheduler.Scheduler
	CleanupJob     *clientdata.CleanupJob
	MaintenanceJob *database.MaintenanceJob
}

// Ping checks that the cache backend is reachable
func (c *Container) Ping(ctx context.Context) error {
	if c.RedisStore != nil {
		return c.RedisStore.Ping(ctx)
	}
	if c.CacheDB != nil {
		return c.CacheDB.QuickCheck(ctx)
	}
	return nil
}

// Close releases the cache connection
func (c *Container) Close() error {
	if c.RedisStore != nil {
		return c.RedisStore.Close()
	}
	if c.CacheDB != nil {
		return c.CacheDB.Close()
	}
	return nil
}
