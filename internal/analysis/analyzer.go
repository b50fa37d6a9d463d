// Package analysis rates the market impact of news items with a chat-completion backend.
package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
)

// SystemPrompt instructs the model to answer with a 1-5 rating.
const SystemPrompt = "You are a stock analyst. Analyze the following news and rate the sentiment " +
	"between 1 to 5, where 1 is very negative and 5 is very positive for the stock price. " +
	"Start your answer with the number, then explain briefly."

// Completer sends one system and user message pair and returns the reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Backend() string
}

// Analyzer implements domain.ImpactAnalyzer.
type Analyzer struct {
	completer Completer
	log       zerolog.Logger
}

// NewAnalyzer creates an analyzer backed by completer.
func NewAnalyzer(completer Completer, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		completer: completer,
		log:       log.With().Str("component", "analysis").Str("backend", completer.Backend()).Logger(),
	}
}

// Analyze rates item. Any failure is returned as *domain.AnalysisBackendError.
func (a *Analyzer) Analyze(ctx context.Context, item *domain.NewsItem) (*domain.AnalyzedItem, error) {
	verdict, err := a.completer.Complete(ctx, SystemPrompt, BuildPrompt(item))
	if err != nil {
		var backendErr *domain.AnalysisBackendError
		if errors.As(err, &backendErr) {
			return nil, err
		}
		return nil, &domain.AnalysisBackendError{Backend: a.completer.Backend(), Message: err.Error(), Err: err}
	}

	analyzed := &domain.AnalyzedItem{
		Item:    item,
		Verdict: verdict,
		Score:   ParseScore(verdict),
	}

	ev := a.log.Debug().Str("ticker", item.Ticker)
	if analyzed.Score != nil {
		ev = ev.Int("score", *analyzed.Score)
	}
	ev.Msg("News analyzed")

	return analyzed, nil
}

// BuildPrompt is the user message for item: its summary, or its title when the summary is empty.
func BuildPrompt(item *domain.NewsItem) string {
	if item == nil {
		return ""
	}
	if s := strings.TrimSpace(item.Summary); s != "" {
		return s
	}
	return strings.TrimSpace(item.Title)
}
