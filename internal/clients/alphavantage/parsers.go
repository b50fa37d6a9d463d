package alphavantage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

func parseFloat64(s string) float64 {
	v := parseFloat64Ptr(s)
	if v == nil {
		return 0
	}
	return *v
}

func parseFloat64Ptr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseDateTime parses the compact timestamp format used by the news feed.
func parseDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"20060102T150405", "20060102T1504"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

// parseNewsSentiment decodes a NEWS_SENTIMENT payload.
// A payload without a feed yields no items.
func parseNewsSentiment(body []byte) ([]FeedItem, error) {
	var raw newsSentimentResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse news sentiment: %w", err)
	}

	items := make([]FeedItem, 0, len(raw.Feed))
	for _, f := range raw.Feed {
		item := FeedItem{
			Title:                 f.Title,
			URL:                   f.URL,
			Summary:               f.Summary,
			Source:                f.Source,
			OverallSentimentScore: f.OverallSentimentScore.value,
			OverallSentimentLabel: f.OverallSentimentLabel,
		}
		if t, err := parseDateTime(f.TimePublished); err == nil {
			item.TimePublished = t
		}
		for _, ts := range f.TickerSentiment {
			item.TickerSentiment = append(item.TickerSentiment, TickerSentiment{
				Ticker:         ts.Ticker,
				RelevanceScore: ts.RelevanceScore.value,
				SentimentScore: ts.TickerSentimentScore.value,
				SentimentLabel: ts.TickerSentimentLabel,
			})
		}
		items = append(items, item)
	}
	return items, nil
}
