package domain

import (
	"fmt"
	"time"
)

// WatchEntry identifies one tracked instrument (a ticker symbol).
type WatchEntry string

// String returns the identifier.
func (e WatchEntry) String() string {
	return string(e)
}

// NewsItem is a raw news item returned by a news backend.
// Items are never mutated once a backend has produced them.
type NewsItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Summary string `json:"summary"`
	// ImpactScore is supplied by some backends (e.g. a sentiment score). Nil when absent.
	ImpactScore *float64 `json:"impact_score,omitempty"`
	Ticker      string   `json:"ticker"`
	Source      string   `json:"source,omitempty"`
}

// AnalyzedItem pairs an impact verdict with the item it was computed for.
type AnalyzedItem struct {
	Item    *NewsItem `json:"item"`
	Verdict string    `json:"verdict"`
	// Score is the 1-5 rating parsed out of Verdict, nil when the verdict carries none.
	Score *int `json:"score,omitempty"`
}

// Ticker returns the originating item's ticker.
func (a *AnalyzedItem) Ticker() string {
	if a == nil || a.Item == nil {
		return ""
	}
	return a.Item.Ticker
}

// Link returns the originating item's link.
func (a *AnalyzedItem) Link() string {
	if a == nil || a.Item == nil {
		return ""
	}
	return a.Item.Link
}

// Delivery is the acknowledgement returned by a notifier.
type Delivery struct {
	Channel   string    `json:"channel"`
	MessageID int       `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

// CycleReport summarizes one pipeline cycle.
type CycleReport struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Entries  int `json:"entries"`
	Fetched  int `json:"fetched"`
	Analyzed int `json:"analyzed"`
	Notified int `json:"notified"`

	LoadFailed    bool `json:"load_failed"`
	FetchFailed   int  `json:"fetch_failed"`
	AnalyzeFailed int  `json:"analyze_failed"`
	NotifyFailed  int  `json:"notify_failed"`

	// Provider-supplied impact score statistics over the fetched items that carry one.
	ProviderScoreMean   *float64 `json:"provider_score_mean,omitempty"`
	ProviderScoreStdDev *float64 `json:"provider_score_stddev,omitempty"`
}

// Failed returns the number of per-entry and per-item failures in the cycle.
func (r CycleReport) Failed() int {
	return r.FetchFailed + r.AnalyzeFailed + r.NotifyFailed
}

// NoOp reports whether the cycle ended before any item reached the analyzer.
func (r CycleReport) NoOp() bool {
	return r.Entries == 0 || r.Fetched == 0
}

// Duration returns how long the cycle took.
func (r CycleReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// String renders the counters in a compact form for log lines and the CLI.
func (r CycleReport) String() string {
	return fmt.Sprintf("entries=%d, fetched=%d, analyzed=%d, notified=%d, failed=%d",
		r.Entries, r.Fetched, r.Analyzed, r.Notified, r.Failed())
}

// SchedulerState is the lifecycle state of a scheduler.
type SchedulerState int

const (
	// StateStopped is the initial state; no cadence loop is active.
	StateStopped SchedulerState = iota
	// StateRunning means exactly one cadence loop is active.
	StateRunning
)

// String returns a human-readable name for the state.
func (s SchedulerState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateRunning:
		return "Running"
	default:
		return "Unknown"
	}
}
