package news

import (
	"context"

	"github.com/aristath/newswatch/internal/clients/alphavantage"
	"github.com/aristath/newswatch/internal/clients/newsapi"
	"github.com/aristath/newswatch/internal/clients/yahoo"
	"github.com/aristath/newswatch/internal/config"
	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
)

// Clients holds the constructed backend clients; unused ones may be nil.
type Clients struct {
	Yahoo        *yahoo.Client
	AlphaVantage alphavantage.ClientInterface
	NewsAPI      *newsapi.Client
}

// SelectBackend maps a configured source name onto its backend.
// Unknown names, or known names whose client is missing, select a backend that
// logs a warning and returns no items.
func SelectBackend(name string, clients Clients, log zerolog.Logger) Backend {
	switch name {
	case config.SourceYahooFinance:
		if clients.Yahoo != nil {
			return &yahooBackend{client: clients.Yahoo}
		}
	case config.SourceAlphaVantage:
		if clients.AlphaVantage != nil {
			return &alphaVantageBackend{client: clients.AlphaVantage}
		}
	case config.SourceNewsAPI:
		if clients.NewsAPI != nil {
			return &newsAPIBackend{client: clients.NewsAPI}
		}
	}

	log.Warn().Str("news_source", name).Msg("News source is not supported or not configured; cycles will fetch nothing")
	return unsupported{name: name, log: log}
}

type yahooBackend struct {
	client *yahoo.Client
}

func (b *yahooBackend) Name() string { return config.SourceYahooFinance }

// Yahoo search results carry no summary, so the title doubles as one.
func (b *yahooBackend) Fetch(ctx context.Context, ticker string, limit int) ([]domain.NewsItem, error) {
	articles, err := b.client.GetNews(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}
	items := make([]domain.NewsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, domain.NewsItem{
			Title:   a.Title,
			Link:    a.Link,
			Summary: a.Title,
			Source:  a.Publisher,
		})
	}
	return items, nil
}

type alphaVantageBackend struct {
	client alphavantage.ClientInterface
}

func (b *alphaVantageBackend) Name() string { return config.SourceAlphaVantage }

func (b *alphaVantageBackend) Fetch(ctx context.Context, ticker string, limit int) ([]domain.NewsItem, error) {
	feed, err := b.client.GetNewsSentiment(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}
	items := make([]domain.NewsItem, 0, len(feed))
	for _, f := range feed {
		items = append(items, domain.NewsItem{
			Title:       f.Title,
			Link:        f.URL,
			Summary:     f.Summary,
			ImpactScore: f.OverallSentimentScore,
			Source:      f.Source,
		})
	}
	return items, nil
}

type newsAPIBackend struct {
	client *newsapi.Client
}

func (b *newsAPIBackend) Name() string { return config.SourceNewsAPI }

func (b *newsAPIBackend) Fetch(ctx context.Context, ticker string, limit int) ([]domain.NewsItem, error) {
	articles, err := b.client.Search(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}
	items := make([]domain.NewsItem, 0, len(articles))
	for _, a := range articles {
		summary := a.Description
		if summary == "" {
			summary = a.Title
		}
		items = append(items, domain.NewsItem{
			Title:   a.Title,
			Link:    a.URL,
			Summary: summary,
			Source:  a.Source,
		})
	}
	return items, nil
}
