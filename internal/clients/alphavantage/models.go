package alphavantage

import (
	"encoding/json"
	"time"
)

// FeedItem is one article of a NEWS_SENTIMENT feed
type FeedItem struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	Summary               string            `json:"summary"`
	Source                string            `json:"source"`
	TimePublished         time.Time         `json:"time_published"`
	OverallSentimentScore *float64          `json:"overall_sentiment_score,omitempty"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	TickerSentiment       []TickerSentiment `json:"ticker_sentiment,omitempty"`
}

// TickerSentiment is the per-ticker sentiment breakdown of a feed item
type TickerSentiment struct {
	Ticker         string   `json:"ticker"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	SentimentLabel string   `json:"sentiment_label"`
}

type newsSentimentResponse struct {
	Items string    `json:"items"`
	Feed  []rawFeed `json:"feed"`
}

type rawFeed struct {
	Title                 string      `json:"title"`
	URL                   string      `json:"url"`
	TimePublished         string      `json:"time_published"`
	Summary               string      `json:"summary"`
	Source                string      `json:"source"`
	OverallSentimentScore flexFloat   `json:"overall_sentiment_score"`
	OverallSentimentLabel string      `json:"overall_sentiment_label"`
	TickerSentiment       []rawTicker `json:"ticker_sentiment"`
}

type rawTicker struct {
	Ticker               string    `json:"ticker"`
	RelevanceScore       flexFloat `json:"relevance_score"`
	TickerSentimentScore flexFloat `json:"ticker_sentiment_score"`
	TickerSentimentLabel string    `json:"ticker_sentiment_label"`
}

// flexFloat decodes a score that the API sends either as a JSON number or as a string.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.value = parseFloat64Ptr(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	f.value = &v
	return nil
}
