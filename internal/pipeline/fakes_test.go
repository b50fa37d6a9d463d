package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aristath/newswatch/internal/domain"
)

// recorder keeps the ordered log of collaborator calls.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeWatchlist struct {
	rec     *recorder
	entries []domain.WatchEntry
	err     error
}

func (f *fakeWatchlist) Load(ctx context.Context) ([]domain.WatchEntry, error) {
	f.rec.add("load")
	return f.entries, f.err
}

type fakeSource struct {
	rec   *recorder
	items map[domain.WatchEntry][]domain.NewsItem
	errs  map[domain.WatchEntry]error
	delay map[domain.WatchEntry]time.Duration
}

func (f *fakeSource) Fetch(ctx context.Context, entry domain.WatchEntry) ([]domain.NewsItem, error) {
	f.rec.add("fetch:" + entry.String())
	if d := f.delay[entry]; d > 0 {
		time.Sleep(d)
	}
	if err := f.errs[entry]; err != nil {
		return nil, err
	}
	items := f.items[entry]
	out := make([]domain.NewsItem, len(items))
	for i, item := range items {
		item.Ticker = entry.String()
		out[i] = item
	}
	return out, nil
}

type fakeAnalyzer struct {
	rec      *recorder
	verdicts map[string]string
	fail     map[string]error
	panics   map[string]bool
	block    map[string]chan struct{}
	empty    map[string]bool

	mu   sync.Mutex
	seen []*domain.NewsItem
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, item *domain.NewsItem) (*domain.AnalyzedItem, error) {
	f.rec.add("analyze:" + item.Link)
	f.mu.Lock()
	f.seen = append(f.seen, item)
	f.mu.Unlock()
	if f.panics[item.Link] {
		panic("analyzer exploded")
	}
	if ch, ok := f.block[item.Link]; ok {
		<-ch
	}
	if err := f.fail[item.Link]; err != nil {
		return nil, err
	}
	if f.empty[item.Link] {
		return nil, nil
	}
	verdict := f.verdicts[item.Link]
	if verdict == "" {
		verdict = "3"
	}
	score := 3
	return &domain.AnalyzedItem{Item: item, Verdict: verdict, Score: &score}, nil
}

type fakeNotifier struct {
	rec       *recorder
	fail      map[string]bool
	delivered []*domain.AnalyzedItem
}

func (f *fakeNotifier) Notify(ctx context.Context, item *domain.AnalyzedItem) (*domain.Delivery, error) {
	f.rec.add("notify:" + item.Link())
	if f.fail[item.Link()] {
		return nil, &domain.DeliveryError{Channel: "telegram", Status: 400, Message: "chat not found"}
	}
	f.delivered = append(f.delivered, item)
	return &domain.Delivery{Channel: "telegram", MessageID: len(f.delivered), SentAt: time.Now()}, nil
}

var errBackend = errors.New("backend down")
