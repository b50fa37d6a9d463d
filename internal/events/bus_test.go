package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitToMatchingSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var started, completed []*Event
	bus.Subscribe(CycleStarted, func(e *Event) { started = append(started, e) })
	bus.Subscribe(CycleCompleted, func(e *Event) { completed = append(completed, e) })

	bus.Emit(CycleStarted, "pipeline", map[string]interface{}{"cycle_id": "c1"})

	require.Len(t, started, 1)
	assert.Empty(t, completed)
	assert.Equal(t, "pipeline", started[0].Module)
	assert.Equal(t, "c1", started[0].Data["cycle_id"])
	assert.False(t, started[0].Timestamp.IsZero())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	calls := 0
	id := bus.Subscribe(ItemNotified, func(e *Event) { calls++ })
	assert.Equal(t, 1, bus.Subscribers())

	bus.Emit(ItemNotified, "pipeline", nil)
	bus.Unsubscribe(id)
	bus.Emit(ItemNotified, "pipeline", nil)
	bus.Unsubscribe(999)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Subscribers())
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	calls := 0
	bus.Subscribe(ItemFailed, func(e *Event) { panic("boom") })
	bus.Subscribe(ItemFailed, func(e *Event) { calls++ })

	assert.NotPanics(t, func() {
		bus.Emit(ItemFailed, "pipeline", nil)
	})
	assert.Equal(t, 1, calls)
}

func TestBus_EmitTyped(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got *Event
	bus.Subscribe(CycleCompleted, func(e *Event) { got = e })

	bus.EmitTyped("pipeline", &CycleCompletedData{CycleID: "c1", Entries: 2, Notified: 1})

	require.NotNil(t, got)
	assert.Equal(t, CycleCompleted, got.Type)
	assert.Equal(t, float64(2), got.Data["entries"])
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	assert.NotPanics(t, func() {
		bus.Emit(CacheCleaned, "cache", nil)
	})
}
