package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/newswatch/internal/analysis"
	"github.com/aristath/newswatch/internal/clients/alphavantage"
	"github.com/aristath/newswatch/internal/clients/llm"
	"github.com/aristath/newswatch/internal/clients/newsapi"
	"github.com/aristath/newswatch/internal/clients/telegram"
	"github.com/aristath/newswatch/internal/clients/yahoo"
	"github.com/aristath/newswatch/internal/config"
	"github.com/aristath/newswatch/internal/events"
	"github.com/aristath/newswatch/internal/news"
	"github.com/aristath/newswatch/internal/notification"
	"github.com/aristath/newswatch/internal/pipeline"
	"github.com/aristath/newswatch/internal/watchlist"
)

// InitializeServices creates the clients and the pipeline collaborators
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.EventBus = events.NewBus(log)

	// Clients
	container.YahooClient = yahoo.NewClient(log)
	container.AlphaVantageClient = alphavantage.NewClient(cfg.AlphaVantageAPIKey, container.CacheStore, log)
	if cfg.AlphaVantageDailyCap > 0 {
		container.AlphaVantageClient.SetDailyLimit(cfg.AlphaVantageDailyCap)
	}
	container.NewsAPIClient = newsapi.NewClient(cfg.NewsAPIKey, log)

	if cfg.UseGroq {
		container.LLMClient = llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel, log)
	} else {
		container.LLMClient = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
	}

	container.TelegramClient = telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChatID, log)

	// Watch-list
	container.Watchlist = watchlist.New(watchlist.Config{
		TickersFile:     cfg.TickersFile,
		SheetID:         cfg.SheetID,
		CredentialsFile: cfg.CredentialsFile,
		Column:          cfg.TickerColumn,
		S3: watchlist.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		},
	}, log)

	// News source, backend fixed for the lifetime of the process
	backend := news.SelectBackend(cfg.NewsSource, news.Clients{
		Yahoo:        container.YahooClient,
		AlphaVantage: container.AlphaVantageClient,
		NewsAPI:      container.NewsAPIClient,
	}, log)
	container.NewsSource = news.NewSource(backend, cfg.ItemsLimit, log)

	container.Analyzer = analysis.NewAnalyzer(container.LLMClient, log)
	container.Notifier = notification.NewNotifier(container.TelegramClient, telegram.Channel, log)

	container.Runner = pipeline.NewRunner(
		container.Watchlist,
		container.NewsSource,
		container.Analyzer,
		container.Notifier,
		pipeline.Config{
			FetchConcurrency: cfg.FetchConcurrency,
			CallTimeout:      cfg.CallTimeout(),
		},
		log,
	)
	container.Runner.SetEmitter(container.EventBus)

	log.Info().
		Str("watchlist", cfg.WatchlistMode()).
		Str("news_source", container.NewsSource.Backend()).
		Str("analysis", container.LLMClient.Backend()).
		Msg("Services initialized")

	return nil
}
