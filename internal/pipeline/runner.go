// Package pipeline runs one watch-list cycle: load, fetch, analyze, notify.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/aristath/newswatch/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

const module = "pipeline"

// Emitter publishes typed events.
type Emitter interface {
	EmitTyped(module string, data events.EventData)
}

// Config tunes a Runner.
type Config struct {
	// FetchConcurrency > 1 fetches entries ahead in parallel; analysis and
	// notification stay sequential in entry order.
	FetchConcurrency int
	// CallTimeout bounds each collaborator call. Zero disables the bound.
	CallTimeout time.Duration
}

// Runner implements domain.CycleRunner.
type Runner struct {
	watchlist domain.WatchlistProvider
	source    domain.NewsSource
	analyzer  domain.ImpactAnalyzer
	notifier  domain.Notifier
	emitter   Emitter

	concurrency int
	callTimeout time.Duration

	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

// NewRunner wires the four collaborators into a runner.
func NewRunner(
	watchlist domain.WatchlistProvider,
	source domain.NewsSource,
	analyzer domain.ImpactAnalyzer,
	notifier domain.Notifier,
	cfg Config,
	log zerolog.Logger,
) *Runner {
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}
	return &Runner{
		watchlist:   watchlist,
		source:      source,
		analyzer:    analyzer,
		notifier:    notifier,
		concurrency: cfg.FetchConcurrency,
		callTimeout: cfg.CallTimeout,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
		log:         log.With().Str("component", module).Logger(),
	}
}

// SetEmitter attaches an event emitter. Nil disables events.
func (r *Runner) SetEmitter(e Emitter) {
	r.emitter = e
}

type fetchResult struct {
	entry domain.WatchEntry
	items []domain.NewsItem
	err   error
}

// RunCycle executes one complete cycle. It never fails as a whole: every
// error is logged, counted in the report and isolated to its entry or item.
func (r *Runner) RunCycle(ctx context.Context) domain.CycleReport {
	report := domain.CycleReport{ID: r.newID(), StartedAt: r.now()}
	log := r.log.With().Str("cycle_id", report.ID).Logger()

	r.emit(&events.CycleStartedData{CycleID: report.ID, StartedAt: report.StartedAt})
	defer func() {
		r.emit(&events.CycleCompletedData{
			CycleID:    report.ID,
			Entries:    report.Entries,
			Fetched:    report.Fetched,
			Analyzed:   report.Analyzed,
			Notified:   report.Notified,
			Failed:     report.Failed(),
			LoadFailed: report.LoadFailed,
			Duration:   report.Duration().Seconds(),
		})
	}()

	entries, err := call(ctx, r.callTimeout, r.watchlist.Load)
	if err != nil {
		report.LoadFailed = true
		log.Error().Err(err).Msg("Failed to load watch-list, skipping cycle")
		r.emit(&events.WatchlistLoadFailedData{CycleID: report.ID, Error: err.Error()})
		report.FinishedAt = r.now()
		return report
	}

	report.Entries = len(entries)
	if len(entries) == 0 {
		log.Info().Msg("Watch-list is empty, nothing to do")
		report.FinishedAt = r.now()
		return report
	}

	var prefetched []fetchResult
	if r.concurrency > 1 {
		prefetched = r.prefetch(ctx, entries)
	}

	var providerScores []float64
	for i, entry := range entries {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("remaining", len(entries)-i).Msg("Cycle cancelled")
			break
		}

		var fetched fetchResult
		if prefetched != nil {
			fetched = prefetched[i]
		} else {
			fetched = r.fetch(ctx, entry)
		}

		if fetched.err != nil {
			report.FetchFailed++
			log.Warn().Err(fetched.err).Str("ticker", entry.String()).Msg("Failed to fetch news")
			r.emit(&events.ItemFailedData{CycleID: report.ID, Ticker: entry.String(), Stage: "fetch", Error: fetched.err.Error()})
			continue
		}

		report.Fetched += len(fetched.items)
		for j := range fetched.items {
			item := fetched.items[j]
			if item.ImpactScore != nil {
				providerScores = append(providerScores, *item.ImpactScore)
			}
			r.processItem(ctx, &report, &item, log)
		}
	}

	report.ProviderScoreMean, report.ProviderScoreStdDev = scoreStats(providerScores)
	report.FinishedAt = r.now()

	log.Info().
		Int("entries", report.Entries).
		Int("fetched", report.Fetched).
		Int("analyzed", report.Analyzed).
		Int("notified", report.Notified).
		Int("failed", report.Failed()).
		Dur("duration", report.Duration()).
		Msg("Cycle completed")

	return report
}

func (r *Runner) processItem(ctx context.Context, report *domain.CycleReport, item *domain.NewsItem, log zerolog.Logger) {
	analyzed, err := call(ctx, r.callTimeout, func(ctx context.Context) (*domain.AnalyzedItem, error) {
		return r.analyzer.Analyze(ctx, item)
	})
	if err == nil && analyzed == nil {
		err = fmt.Errorf("%w: no verdict returned", domain.ErrAnalysisBackend)
	}
	if err != nil {
		report.AnalyzeFailed++
		log.Warn().Err(err).Str("ticker", item.Ticker).Str("link", item.Link).Msg("Failed to analyze news")
		r.emit(&events.ItemFailedData{CycleID: report.ID, Ticker: item.Ticker, Link: item.Link, Stage: "analyze", Error: err.Error()})
		return
	}
	report.Analyzed++

	delivery, err := call(ctx, r.callTimeout, func(ctx context.Context) (*domain.Delivery, error) {
		return r.notifier.Notify(ctx, analyzed)
	})
	if err != nil {
		report.NotifyFailed++
		log.Warn().Err(err).Str("ticker", item.Ticker).Str("link", item.Link).Msg("Failed to send notification")
		r.emit(&events.ItemFailedData{CycleID: report.ID, Ticker: item.Ticker, Link: item.Link, Stage: "notify", Error: err.Error()})
		return
	}
	report.Notified++

	data := &events.ItemNotifiedData{
		CycleID: report.ID,
		Ticker:  item.Ticker,
		Title:   item.Title,
		Link:    item.Link,
		Score:   analyzed.Score,
	}
	if delivery != nil {
		data.Channel = delivery.Channel
		data.MessageID = delivery.MessageID
	}
	r.emit(data)
}

func (r *Runner) fetch(ctx context.Context, entry domain.WatchEntry) fetchResult {
	items, err := call(ctx, r.callTimeout, func(ctx context.Context) ([]domain.NewsItem, error) {
		return r.source.Fetch(ctx, entry)
	})
	return fetchResult{entry: entry, items: items, err: err}
}

// prefetch fetches every entry with bounded parallelism. Results keep entry order.
func (r *Runner) prefetch(ctx context.Context, entries []domain.WatchEntry) []fetchResult {
	results := make([]fetchResult, len(entries))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, entry := range entries {
		i, entry := i, entry // per-iteration copy; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			results[i] = r.fetch(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) emit(data events.EventData) {
	if r.emitter == nil {
		return
	}
	r.emitter.EmitTyped(module, data)
}

// scoreStats returns the mean and sample standard deviation, nil when there are no scores.
func scoreStats(scores []float64) (*float64, *float64) {
	if len(scores) == 0 {
		return nil, nil
	}
	if len(scores) == 1 {
		mean, std := scores[0], 0.0
		return &mean, &std
	}
	mean, std := stat.MeanStdDev(scores, nil)
	return &mean, &std
}
