// Package yahoo fetches ticker news from the public Yahoo Finance search endpoint.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v1/finance/search"

// Client is a Yahoo Finance API client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// GetNews returns up to limit news articles for symbol, newest first as Yahoo orders them.
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]NewsArticle, error) {
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Add("q", symbol)
	params.Add("newsCount", strconv.Itoa(limit))
	params.Add("quotesCount", "0")
	params.Add("enableFuzzyQuery", "false")

	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("symbol", symbol).Int("limit", limit).Msg("Fetching news")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Finance != nil && result.Finance.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %s", result.Finance.Error.Description)
	}

	articles := make([]NewsArticle, 0, len(result.News))
	for _, n := range result.News {
		if n.Title == "" && n.Link == "" {
			continue
		}
		article := NewsArticle{
			UUID:      n.UUID,
			Title:     n.Title,
			Publisher: n.Publisher,
			Link:      n.Link,
			Type:      n.Type,
			Tickers:   n.RelatedTickers,
		}
		if n.ProviderPublishTime > 0 {
			article.PublishedAt = time.Unix(n.ProviderPublishTime, 0).UTC()
		}
		articles = append(articles, article)
		if len(articles) == limit {
			break
		}
	}

	return articles, nil
}
