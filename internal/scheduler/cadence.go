package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Cadence computes when the next cycle may start, given when the last one started.
type Cadence interface {
	Next(lastStart time.Time) time.Time
	String() string
}

// IntervalCadence starts cycles a fixed interval apart, measured start to start.
type IntervalCadence struct {
	interval time.Duration
}

// NewIntervalCadence creates a fixed-interval cadence
func NewIntervalCadence(interval time.Duration) IntervalCadence {
	return IntervalCadence{interval: interval}
}

// Next returns lastStart + interval
func (c IntervalCadence) Next(lastStart time.Time) time.Time {
	return lastStart.Add(c.interval)
}

func (c IntervalCadence) String() string {
	return "every " + c.interval.String()
}

// CronCadence starts cycles on a standard five-field cron schedule.
// Schedule examples:
//   - "*/30 * * * *"     - Every 30 minutes
//   - "0 9-17 * * MON-FRI" - Hourly during weekday office hours
//   - "@hourly"          - Every hour
type CronCadence struct {
	spec     string
	schedule cron.Schedule
}

// NewCronCadence parses spec
func NewCronCadence(spec string) (*CronCadence, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return &CronCadence{spec: spec, schedule: schedule}, nil
}

// Next returns the first activation after lastStart. A cycle that overran one
// or more activations is followed immediately by a single catch-up cycle.
func (c *CronCadence) Next(lastStart time.Time) time.Time {
	return c.schedule.Next(lastStart)
}

func (c *CronCadence) String() string {
	return "cron " + c.spec
}

// NewCadence prefers the cron schedule when one is given.
func NewCadence(interval time.Duration, schedule string) (Cadence, error) {
	if schedule != "" {
		return NewCronCadence(schedule)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("cadence interval must be positive, got %s", interval)
	}
	return NewIntervalCadence(interval), nil
}
