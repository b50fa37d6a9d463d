// Package alphavantage fetches ticker news and sentiment from the Alpha Vantage API.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aristath/newswatch/internal/clientdata"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"

	// DefaultDailyLimit is the free-tier request budget per UTC day.
	DefaultDailyLimit = 25

	quotaKeyPrefix = "av_quota:"
)

// ClientInterface is the subset of the client used by news sources.
type ClientInterface interface {
	GetNewsSentiment(ctx context.Context, ticker string, limit int) ([]FeedItem, error)
	GetRemainingRequests(ctx context.Context) int
}

// Client for the Alpha Vantage API
type Client struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	dailyLimit int
	// quota persists the daily request counter across restarts; nil keeps it in memory.
	quota clientdata.Store
	log   zerolog.Logger

	mu         sync.Mutex
	dailyCount int
	countDay   string
	now        func() time.Time
}

// NewClient creates a new Alpha Vantage client.
// quota is optional - if nil, the daily counter lives in memory only.
func NewClient(apiKey string, quota clientdata.Store, log zerolog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		dailyLimit: DefaultDailyLimit,
		quota:      quota,
		log:        log.With().Str("client", "alphavantage").Logger(),
		now:        time.Now,
	}
}

// SetDailyLimit overrides the daily request budget.
func (c *Client) SetDailyLimit(limit int) {
	if limit > 0 {
		c.dailyLimit = limit
	}
}

// GetNewsSentiment returns up to limit feed items mentioning ticker, most relevant first.
func (c *Client) GetNewsSentiment(ctx context.Context, ticker string, limit int) ([]FeedItem, error) {
	if limit <= 0 {
		limit = 1
	}

	body, err := c.doRequest(ctx, "NEWS_SENTIMENT", map[string]string{
		"tickers": ticker,
		"sort":    "RELEVANCE",
		"limit":   strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}

	items, err := parseNewsSentiment(body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		c.log.Debug().Str("ticker", ticker).Msg("No news found")
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// GetRemainingRequests returns how many requests are left in today's budget.
func (c *Client) GetRemainingRequests(ctx context.Context) int {
	used := c.usedToday(ctx)
	if used >= c.dailyLimit {
		return 0
	}
	return c.dailyLimit - used
}

// ResetDailyCounter clears the in-memory counter.
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyCount = 0
	c.countDay = c.today()
}

func (c *Client) doRequest(ctx context.Context, function string, params map[string]string) ([]byte, error) {
	if err := c.checkRateLimit(ctx); err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("function", function)
	values.Set("apikey", c.apiKey)
	for k, v := range params {
		values.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.log.Debug().Str("function", function).Msg("Calling Alpha Vantage")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := c.checkAPIError(body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkRateLimit consumes one request from today's budget.
func (c *Client) checkRateLimit(ctx context.Context) error {
	if c.quota != nil {
		n, err := c.quota.Increment(ctx, c.quotaKey(), clientdata.TTLDailyQuota)
		if err == nil {
			if int(n) > c.dailyLimit {
				return ErrRateLimitExceeded{Limit: c.dailyLimit}
			}
			return nil
		}
		c.log.Warn().Err(err).Msg("Quota store unavailable, counting in memory")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDay()
	if c.dailyCount >= c.dailyLimit {
		return ErrRateLimitExceeded{Limit: c.dailyLimit}
	}
	c.dailyCount++
	return nil
}

func (c *Client) usedToday(ctx context.Context) int {
	if c.quota != nil {
		n, err := c.quota.Counter(ctx, c.quotaKey())
		if err == nil {
			return int(n)
		}
		c.log.Warn().Err(err).Msg("Failed to read quota counter")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDay()
	return c.dailyCount
}

// rollDay resets the in-memory counter when the UTC day changes. Caller holds mu.
func (c *Client) rollDay() {
	today := c.today()
	if c.countDay != today {
		c.countDay = today
		c.dailyCount = 0
	}
}

func (c *Client) today() string {
	return c.now().UTC().Format("2006-01-02")
}

func (c *Client) quotaKey() string {
	return quotaKeyPrefix + c.today()
}

// checkAPIError detects error payloads the API returns with HTTP 200.
func (c *Client) checkAPIError(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "Thank you for using Alpha Vantage") {
		return ErrRateLimitExceeded{}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	if note, ok := payload["Note"].(string); ok && note != "" {
		return ErrRateLimitExceeded{}
	}
	if info, ok := payload["Information"].(string); ok && info != "" {
		lower := strings.ToLower(info)
		if strings.Contains(lower, "apikey") || strings.Contains(lower, "api key") {
			return ErrInvalidAPIKey{}
		}
		return ErrRateLimitExceeded{}
	}
	if msg, ok := payload["Error Message"].(string); ok && msg != "" {
		return APIError{Message: msg}
	}
	return nil
}
