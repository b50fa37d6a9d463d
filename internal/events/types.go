// Package events provides an in-process publish/subscribe bus for cycle and delivery events.
package events

import "time"

// EventType identifies an event
type EventType string

const (
	CycleStarted          EventType = "CYCLE_STARTED"
	CycleCompleted        EventType = "CYCLE_COMPLETED"
	WatchlistLoadFailed   EventType = "WATCHLIST_LOAD_FAILED"
	ItemNotified          EventType = "ITEM_NOTIFIED"
	ItemFailed            EventType = "ITEM_FAILED"
	SchedulerStateChanged EventType = "SCHEDULER_STATE_CHANGED"
	CacheCleaned          EventType = "CACHE_CLEANED"
)

// AllTypes lists every event type the bus carries.
var AllTypes = []EventType{
	CycleStarted,
	CycleCompleted,
	WatchlistLoadFailed,
	ItemNotified,
	ItemFailed,
	SchedulerStateChanged,
	CacheCleaned,
}

// Event is what subscribers receive
type Event struct {
	Type      EventType              `json:"type"`
	Module    string                 `json:"module"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
