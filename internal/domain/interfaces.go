package domain

import "context"

// WatchlistProvider returns the current ordered watch-list.
// Implementations fail with a SourceUnavailableError when the backend is unreachable.
type WatchlistProvider interface {
	Load(ctx context.Context) ([]WatchEntry, error)
}

// NewsSource fetches raw news items for one watch entry.
type NewsSource interface {
	Fetch(ctx context.Context, entry WatchEntry) ([]NewsItem, error)
}

// ImpactAnalyzer scores one news item.
// Implementations fail with an AnalysisBackendError on a non-success backend response.
type ImpactAnalyzer interface {
	Analyze(ctx context.Context, item *NewsItem) (*AnalyzedItem, error)
}

// Notifier delivers one analyzed item to a destination channel.
// Implementations fail with a DeliveryError when the channel rejects the message.
type Notifier interface {
	Notify(ctx context.Context, item *AnalyzedItem) (*Delivery, error)
}

// CycleRunner executes one complete pipeline cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) CycleReport
}
