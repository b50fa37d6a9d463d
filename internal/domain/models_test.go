package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCycleReport_Counters(t *testing.T) {
	r := CycleReport{
		Entries:       2,
		Fetched:       3,
		Analyzed:      2,
		Notified:      1,
		FetchFailed:   1,
		AnalyzeFailed: 1,
		NotifyFailed:  1,
	}

	assert.Equal(t, 3, r.Failed())
	assert.False(t, r.NoOp())
	assert.Equal(t, "entries=2, fetched=3, analyzed=2, notified=1, failed=3", r.String())
}

func TestCycleReport_NoOp(t *testing.T) {
	assert.True(t, CycleReport{}.NoOp())
	assert.True(t, CycleReport{Entries: 4}.NoOp())
	assert.False(t, CycleReport{Entries: 1, Fetched: 1}.NoOp())
}

func TestCycleReport_Duration(t *testing.T) {
	start := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

	assert.Zero(t, CycleReport{StartedAt: start}.Duration())
	assert.Equal(t, 3*time.Second, CycleReport{StartedAt: start, FinishedAt: start.Add(3 * time.Second)}.Duration())
}

func TestSchedulerState_String(t *testing.T) {
	assert.Equal(t, "Stopped", StateStopped.String())
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Unknown", SchedulerState(9).String())
}

func TestAnalyzedItem_Accessors(t *testing.T) {
	var nilItem *AnalyzedItem
	assert.Empty(t, nilItem.Ticker())
	assert.Empty(t, nilItem.Link())

	a := &AnalyzedItem{Item: &NewsItem{Ticker: "ACME", Link: "http://x/1"}}
	assert.Equal(t, "ACME", a.Ticker())
	assert.Equal(t, "http://x/1", a.Link())
}
