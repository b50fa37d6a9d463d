package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// CycleStartedData contains data for CycleStarted events
type CycleStartedData struct {
	CycleID   string    `json:"cycle_id"`
	StartedAt time.Time `json:"started_at"`
}

// EventType returns the event type for CycleStartedData
func (d *CycleStartedData) EventType() EventType {
	return CycleStarted
}

// CycleCompletedData contains data for CycleCompleted events
type CycleCompletedData struct {
	CycleID    string  `json:"cycle_id"`
	Entries    int     `json:"entries"`
	Fetched    int     `json:"fetched"`
	Analyzed   int     `json:"analyzed"`
	Notified   int     `json:"notified"`
	Failed     int     `json:"failed"`
	LoadFailed bool    `json:"load_failed"`
	Duration   float64 `json:"duration"`
}

// EventType returns the event type for CycleCompletedData
func (d *CycleCompletedData) EventType() EventType {
	return CycleCompleted
}

// WatchlistLoadFailedData contains data for WatchlistLoadFailed events
type WatchlistLoadFailedData struct {
	CycleID string `json:"cycle_id"`
	Error   string `json:"error"`
}

// EventType returns the event type for WatchlistLoadFailedData
func (d *WatchlistLoadFailedData) EventType() EventType {
	return WatchlistLoadFailed
}

// ItemNotifiedData contains data for ItemNotified events
type ItemNotifiedData struct {
	CycleID   string `json:"cycle_id"`
	Ticker    string `json:"ticker"`
	Title     string `json:"title,omitempty"`
	Link      string `json:"link"`
	Score     *int   `json:"score,omitempty"`
	Channel   string `json:"channel"`
	MessageID int    `json:"message_id"`
}

// EventType returns the event type for ItemNotifiedData
func (d *ItemNotifiedData) EventType() EventType {
	return ItemNotified
}

// ItemFailedData contains data for ItemFailed events
type ItemFailedData struct {
	CycleID string `json:"cycle_id"`
	Ticker  string `json:"ticker"`
	Link    string `json:"link,omitempty"`
	Stage   string `json:"stage"` // "fetch", "analyze", "notify"
	Error   string `json:"error"`
}

// EventType returns the event type for ItemFailedData
func (d *ItemFailedData) EventType() EventType {
	return ItemFailed
}

// SchedulerStateChangedData contains data for SchedulerStateChanged events
type SchedulerStateChangedData struct {
	State   string `json:"state"`
	Cadence string `json:"cadence,omitempty"`
}

// EventType returns the event type for SchedulerStateChangedData
func (d *SchedulerStateChangedData) EventType() EventType {
	return SchedulerStateChanged
}

// CacheCleanedData contains data for CacheCleaned events
type CacheCleanedData struct {
	Removed int64 `json:"removed"`
}

// EventType returns the event type for CacheCleanedData
func (d *CacheCleanedData) EventType() EventType {
	return CacheCleaned
}

// EventWithData represents an event with typed data
type EventWithData struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// MarshalJSON customizes JSON serialization for EventWithData
func (e *EventWithData) MarshalJSON() ([]byte, error) {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for EventWithData
func (e *EventWithData) UnmarshalJSON(data []byte) error {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Data) == 0 {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case CycleStarted:
		eventData = &CycleStartedData{}
	case CycleCompleted:
		eventData = &CycleCompletedData{}
	case WatchlistLoadFailed:
		eventData = &WatchlistLoadFailedData{}
	case ItemNotified:
		eventData = &ItemNotifiedData{}
	case ItemFailed:
		eventData = &ItemFailedData{}
	case SchedulerStateChanged:
		eventData = &SchedulerStateChangedData{}
	case CacheCleaned:
		eventData = &CacheCleanedData{}
	default:
		eventData = &GenericEventData{Type: aux.Type}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
