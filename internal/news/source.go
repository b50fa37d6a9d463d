// Package news selects one news backend at construction and fetches
// at most items_limit items per ticker from it.
package news

import (
	"context"
	"strings"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
)

// Backend fetches raw items for one ticker.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, ticker string, limit int) ([]domain.NewsItem, error)
}

// Source implements domain.NewsSource on top of a single backend.
type Source struct {
	backend Backend
	limit   int
	log     zerolog.Logger
}

// NewSource wraps backend. A nil backend yields a source that warns and returns nothing.
func NewSource(backend Backend, limit int, log zerolog.Logger) *Source {
	if limit <= 0 {
		limit = 1
	}
	if backend == nil {
		backend = unsupported{name: "none"}
	}
	return &Source{
		backend: backend,
		limit:   limit,
		log:     log.With().Str("component", "news").Str("backend", backend.Name()).Logger(),
	}
}

// Backend returns the name of the selected backend.
func (s *Source) Backend() string {
	return s.backend.Name()
}

// Fetch returns at most the configured number of items for entry.
// Backend failures are returned as *domain.FetchError.
func (s *Source) Fetch(ctx context.Context, entry domain.WatchEntry) ([]domain.NewsItem, error) {
	ticker := strings.TrimSpace(entry.String())

	items, err := s.backend.Fetch(ctx, ticker, s.limit)
	if err != nil {
		return nil, &domain.FetchError{Backend: s.backend.Name(), Ticker: ticker, Err: err}
	}

	if len(items) > s.limit {
		items = items[:s.limit]
	}
	for i := range items {
		items[i].Ticker = ticker
		if items[i].Source == "" {
			items[i].Source = s.backend.Name()
		}
	}

	s.log.Debug().Str("ticker", ticker).Int("items", len(items)).Msg("Fetched news")
	return items, nil
}

// unsupported stands in for an unknown or unconfigured backend.
type unsupported struct {
	name string
	log  zerolog.Logger
}

func (u unsupported) Name() string { return u.name }

func (u unsupported) Fetch(ctx context.Context, ticker string, limit int) ([]domain.NewsItem, error) {
	u.log.Warn().Str("backend", u.name).Str("ticker", ticker).Msg("Unsupported news source, no items fetched")
	return nil, nil
}
