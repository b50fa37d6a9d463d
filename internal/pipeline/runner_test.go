package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/aristath/newswatch/internal/events"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	rec       *recorder
	watchlist *fakeWatchlist
	source    *fakeSource
	analyzer  *fakeAnalyzer
	notifier  *fakeNotifier
}

func newHarness(entries ...domain.WatchEntry) *harness {
	rec := &recorder{}
	return &harness{
		rec:       rec,
		watchlist: &fakeWatchlist{rec: rec, entries: entries},
		source: &fakeSource{
			rec:   rec,
			items: map[domain.WatchEntry][]domain.NewsItem{},
			errs:  map[domain.WatchEntry]error{},
			delay: map[domain.WatchEntry]time.Duration{},
		},
		analyzer: &fakeAnalyzer{
			rec:      rec,
			verdicts: map[string]string{},
			fail:     map[string]error{},
			panics:   map[string]bool{},
			block:    map[string]chan struct{}{},
			empty:    map[string]bool{},
		},
		notifier: &fakeNotifier{rec: rec, fail: map[string]bool{}},
	}
}

func (h *harness) runner(cfg Config) *Runner {
	r := NewRunner(h.watchlist, h.source, h.analyzer, h.notifier, cfg, zerolog.Nop())
	r.newID = func() string { return "cycle-1" }
	return r
}

func assertCalls(t *testing.T, want, got []string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("call log mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCycle_SingleAlert(t *testing.T) {
	h := newHarness("ACME", "WIDGE")
	h.source.items["ACME"] = []domain.NewsItem{{Title: "Acme wins contract", Link: "http://x/1", Summary: "Deal signed"}}
	h.analyzer.verdicts["http://x/1"] = "4 - positive"

	report := h.runner(Config{}).RunCycle(context.Background())

	assertCalls(t, []string{
		"load",
		"fetch:ACME",
		"analyze:http://x/1",
		"notify:http://x/1",
		"fetch:WIDGE",
	}, h.rec.snapshot())

	require.Len(t, h.notifier.delivered, 1)
	delivered := h.notifier.delivered[0]
	assert.Equal(t, "ACME", delivered.Ticker())
	assert.Equal(t, "4 - positive", delivered.Verdict)

	assert.Equal(t, "cycle-1", report.ID)
	assert.Equal(t, 2, report.Entries)
	assert.Equal(t, 1, report.Fetched)
	assert.Equal(t, 1, report.Analyzed)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 0, report.Failed())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestRunCycle_EmptyWatchlist(t *testing.T) {
	h := newHarness()

	report := h.runner(Config{}).RunCycle(context.Background())

	assertCalls(t, []string{"load"}, h.rec.snapshot())
	assert.True(t, report.NoOp())
	assert.False(t, report.LoadFailed)
}

func TestRunCycle_LoadFailure(t *testing.T) {
	h := newHarness()
	h.watchlist.err = &domain.SourceUnavailableError{Source: "sheet", Err: errBackend}

	report := h.runner(Config{}).RunCycle(context.Background())

	assertCalls(t, []string{"load"}, h.rec.snapshot())
	assert.True(t, report.LoadFailed)
	assert.Equal(t, 0, report.Entries)
}

func TestRunCycle_NoNews(t *testing.T) {
	h := newHarness("ACME", "WIDGE")

	report := h.runner(Config{}).RunCycle(context.Background())

	assertCalls(t, []string{"load", "fetch:ACME", "fetch:WIDGE"}, h.rec.snapshot())
	assert.True(t, report.NoOp())
	assert.Equal(t, 0, report.Failed())
}

func TestRunCycle_FetchFailureIsolated(t *testing.T) {
	h := newHarness("BAD", "ACME")
	h.source.errs["BAD"] = &domain.FetchError{Backend: "newsapi", Ticker: "BAD", Err: errBackend}
	h.source.items["ACME"] = []domain.NewsItem{{Link: "http://x/1"}}

	report := h.runner(Config{}).RunCycle(context.Background())

	assertCalls(t, []string{
		"load",
		"fetch:BAD",
		"fetch:ACME",
		"analyze:http://x/1",
		"notify:http://x/1",
	}, h.rec.snapshot())
	assert.Equal(t, 1, report.FetchFailed)
	assert.Equal(t, 1, report.Notified)
}

func TestRunCycle_AnalyzeFailureIsolated(t *testing.T) {
	h := newHarness("ACME")
	h.source.items["ACME"] = []domain.NewsItem{{Link: "http://x/1"}, {Link: "http://x/2"}}
	h.analyzer.fail["http://x/1"] = &domain.AnalysisBackendError{Backend: "Groq", Status: 500, Message: "internal"}

	report := h.runner(Config{}).RunCycle(context.Background())

	assertCalls(t, []string{
		"load",
		"fetch:ACME",
		"analyze:http://x/1",
		"analyze:http://x/2",
		"notify:http://x/2",
	}, h.rec.snapshot())
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Analyzed)
	assert.Equal(t, 1, report.AnalyzeFailed)
	assert.Equal(t, 1, report.Notified)
}

func TestRunCycle_MissingVerdictIsAnalyzeFailure(t *testing.T) {
	h := newHarness("ACME")
	h.source.items["ACME"] = []domain.NewsItem{{Link: "http://x/1"}}
	h.analyzer.empty["http://x/1"] = true

	bus := events.NewBus(zerolog.Nop())
	var failed *events.Event
	bus.Subscribe(events.ItemFailed, func(e *events.Event) { failed = e })

	r := h.runner(Config{})
	r.SetEmitter(bus)
	report := r.RunCycle(context.Background())

	assert.Equal(t, 1, report.AnalyzeFailed)
	assert.Zero(t, report.Notified)
	require.NotNil(t, failed)
	assert.Equal(t, "analyze", failed.Data["stage"])
	assert.Equal(t, "analysis backend error: no verdict returned", failed.Data["error"])
}

func TestRunCycle_NotifyFailureIsolated(t *testing.T) {
	h := newHarness("ACME", "WIDGE")
	h.source.items["ACME"] = []domain.NewsItem{{Link: "http://x/1"}}
	h.source.items["WIDGE"] = []domain.NewsItem{{Link: "http://x/2"}}
	h.notifier.fail["http://x/1"] = true

	report := h.runner(Config{}).RunCycle(context.Background())

	assertCalls(t, []string{
		"load",
		"fetch:ACME",
		"analyze:http://x/1",
		"notify:http://x/1",
		"fetch:WIDGE",
		"analyze:http://x/2",
		"notify:http://x/2",
	}, h.rec.snapshot())
	assert.Equal(t, 1, report.NotifyFailed)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, "entries=2, fetched=2, analyzed=2, notified=1, failed=1", report.String())
}

func TestRunCycle_PanicIsolated(t *testing.T) {
	h := newHarness("ACME")
	h.source.items["ACME"] = []domain.NewsItem{{Link: "http://x/1"}, {Link: "http://x/2"}}
	h.analyzer.panics["http://x/1"] = true

	var report domain.CycleReport
	assert.NotPanics(t, func() {
		report = h.runner(Config{}).RunCycle(context.Background())
	})
	assert.Equal(t, 1, report.AnalyzeFailed)
	assert.Equal(t, 1, report.Notified)
}

func TestRunCycle_CallTimeout(t *testing.T) {
	h := newHarness("ACME")
	h.source.items["ACME"] = []domain.NewsItem{{Link: "http://x/1"}, {Link: "http://x/2"}}
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	h.analyzer.block["http://x/1"] = release

	start := time.Now()
	report := h.runner(Config{CallTimeout: 50 * time.Millisecond}).RunCycle(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, report.AnalyzeFailed)
	assert.Equal(t, 1, report.Notified)
}

func TestRunCycle_ItemsPassedUnchanged(t *testing.T) {
	h := newHarness("ACME")
	score := 0.25
	original := domain.NewsItem{Title: "t", Link: "http://x/1", Summary: "s", ImpactScore: &score}
	h.source.items["ACME"] = []domain.NewsItem{original}

	h.runner(Config{}).RunCycle(context.Background())

	require.Len(t, h.analyzer.seen, 1)
	want := original
	want.Ticker = "ACME"
	assert.Equal(t, want, *h.analyzer.seen[0])
	require.Len(t, h.notifier.delivered, 1)
	assert.Same(t, h.analyzer.seen[0], h.notifier.delivered[0].Item)
}

func TestRunCycle_PrefetchKeepsOrder(t *testing.T) {
	h := newHarness("SLOW", "MID", "FAST")
	h.source.items["SLOW"] = []domain.NewsItem{{Link: "http://x/slow"}}
	h.source.items["MID"] = []domain.NewsItem{{Link: "http://x/mid"}}
	h.source.items["FAST"] = []domain.NewsItem{{Link: "http://x/fast"}}
	h.source.delay["SLOW"] = 60 * time.Millisecond
	h.source.delay["MID"] = 30 * time.Millisecond

	report := h.runner(Config{FetchConcurrency: 3}).RunCycle(context.Background())
	assert.Equal(t, 3, report.Notified)

	var notified []string
	for _, c := range h.rec.snapshot() {
		if strings.HasPrefix(c, "notify:") {
			notified = append(notified, c)
		}
	}
	assertCalls(t, []string{"notify:http://x/slow", "notify:http://x/mid", "notify:http://x/fast"}, notified)
}

func TestRunCycle_ProviderScoreStats(t *testing.T) {
	h := newHarness("ACME", "WIDGE")
	a, b := 0.2, 0.4
	h.source.items["ACME"] = []domain.NewsItem{{Link: "http://x/1", ImpactScore: &a}, {Link: "http://x/2"}}
	h.source.items["WIDGE"] = []domain.NewsItem{{Link: "http://x/3", ImpactScore: &b}}

	report := h.runner(Config{}).RunCycle(context.Background())

	require.NotNil(t, report.ProviderScoreMean)
	require.NotNil(t, report.ProviderScoreStdDev)
	assert.InDelta(t, 0.3, *report.ProviderScoreMean, 1e-9)
	assert.InDelta(t, 0.1414213562, *report.ProviderScoreStdDev, 1e-6)
}

func TestScoreStats(t *testing.T) {
	mean, std := scoreStats(nil)
	assert.Nil(t, mean)
	assert.Nil(t, std)

	mean, std = scoreStats([]float64{0.5})
	assert.Equal(t, 0.5, *mean)
	assert.Equal(t, 0.0, *std)
}

func TestRunCycle_CancelledContext(t *testing.T) {
	h := newHarness("ACME", "WIDGE")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := h.runner(Config{}).RunCycle(ctx)

	assert.True(t, report.LoadFailed || report.Fetched == 0)
	assert.Equal(t, 0, report.Notified)
}

func TestRunCycle_EmitsEvents(t *testing.T) {
	h := newHarness("ACME", "BAD")
	h.source.items["ACME"] = []domain.NewsItem{{Link: "http://x/1"}}
	h.source.errs["BAD"] = errBackend

	bus := events.NewBus(zerolog.Nop())
	var got []events.EventType
	for _, typ := range events.AllTypes {
		bus.Subscribe(typ, func(e *events.Event) { got = append(got, e.Type) })
	}

	r := h.runner(Config{})
	r.SetEmitter(bus)
	r.RunCycle(context.Background())

	if diff := cmp.Diff([]events.EventType{
		events.CycleStarted,
		events.ItemNotified,
		events.ItemFailed,
		events.CycleCompleted,
	}, got); diff != "" {
		t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCycle_LoadFailureEvent(t *testing.T) {
	h := newHarness()
	h.watchlist.err = errors.New("unreachable")

	bus := events.NewBus(zerolog.Nop())
	var failed *events.Event
	bus.Subscribe(events.WatchlistLoadFailed, func(e *events.Event) { failed = e })

	r := h.runner(Config{})
	r.SetEmitter(bus)
	r.RunCycle(context.Background())

	require.NotNil(t, failed)
	assert.Equal(t, "cycle-1", failed.Data["cycle_id"])
	assert.Equal(t, "unreachable", failed.Data["error"])
}
