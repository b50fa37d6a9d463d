// Package scheduler runs pipeline cycles on a cadence with a Stopped/Running lifecycle.
package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/aristath/newswatch/internal/events"
	"github.com/rs/zerolog"
)

// ErrCycleInProgress is returned by RunNow while another cycle is executing.
var ErrCycleInProgress = errors.New("a cycle is already in progress")

// Emitter publishes typed events.
type Emitter interface {
	EmitTyped(module string, data events.EventData)
}

// Status is a point-in-time view of the scheduler
type Status struct {
	State         string              `json:"state"`
	Cadence       string              `json:"cadence"`
	Cycles        int                 `json:"cycles"`
	CycleInFlight bool                `json:"cycle_in_flight"`
	NextRun       *time.Time          `json:"next_run,omitempty"`
	LastReport    *domain.CycleReport `json:"last_report,omitempty"`
}

// Scheduler owns at most one cadence loop. Cycles never overlap.
type Scheduler struct {
	runner      domain.CycleRunner
	cadence     Cadence
	stopTimeout time.Duration
	emitter     Emitter
	log         zerolog.Logger

	mu    sync.Mutex // guards state, stop, done, jobs, hooks
	state domain.SchedulerState
	stop  chan struct{}
	done  chan struct{}
	jobs  []Job
	hooks []func(domain.CycleReport)

	cycleMu  sync.Mutex // held for the whole duration of a cycle
	inFlight atomic.Bool

	statsMu    sync.RWMutex
	cycles     int
	lastReport *domain.CycleReport
	nextRun    time.Time
}

// New creates a stopped scheduler
func New(runner domain.CycleRunner, cadence Cadence, stopTimeout time.Duration, log zerolog.Logger) *Scheduler {
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}
	return &Scheduler{
		runner:      runner,
		cadence:     cadence,
		stopTimeout: stopTimeout,
		log:         log.With().Str("component", "scheduler").Logger(),
		state:       domain.StateStopped,
	}
}

// SetEmitter attaches an event emitter
func (s *Scheduler) SetEmitter(e Emitter) {
	s.emitter = e
}

// AddJob registers a job to run after every cycle
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	s.log.Info().Str("job", job.Name()).Msg("Job registered")
}

// OnCycleComplete registers a callback invoked with every cycle report
func (s *Scheduler) OnCycleComplete(fn func(domain.CycleReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// State returns the lifecycle state
func (s *Scheduler) State() domain.SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start runs one cycle synchronously and then launches the cadence loop.
// It returns false without doing anything if the scheduler is already running.
// Cancelling ctx ends the loop as Stop would.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.state == domain.StateRunning {
		s.mu.Unlock()
		s.log.Warn().Msg("Scheduler already running, ignoring")
		return false
	}

	previous := s.done
	stop := make(chan struct{})
	done := make(chan struct{})
	s.state = domain.StateRunning
	s.stop, s.done = stop, done
	s.mu.Unlock()

	// A loop abandoned by a timed-out Stop exits after its in-flight cycle.
	if previous != nil {
		<-previous
	}

	s.log.Info().Str("cadence", s.cadence.String()).Msg("Scheduler started")
	s.emitState(domain.StateRunning)

	start := time.Now()
	s.runScheduled(ctx, stop)

	go s.loop(ctx, start, stop, done)
	return true
}

// Stop signals the loop and waits up to the stop timeout for it to exit.
// A cycle in flight is never interrupted. Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	if s.state != domain.StateRunning {
		s.mu.Unlock()
		s.log.Debug().Msg("Scheduler not running, nothing to stop")
		return false
	}
	s.state = domain.StateStopped
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	s.emitState(domain.StateStopped)

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		s.log.Info().Msg("Scheduler stopped")
	case <-timer.C:
		s.log.Warn().
			Dur("timeout", s.stopTimeout).
			Msg("Timed out waiting for the cycle in flight; it will finish in the background")
	}
	return true
}

// RunNow executes one cycle immediately, in either state.
// It fails with ErrCycleInProgress rather than queue behind a running cycle.
func (s *Scheduler) RunNow(ctx context.Context) (domain.CycleReport, error) {
	if !s.cycleMu.TryLock() {
		return domain.CycleReport{}, ErrCycleInProgress
	}
	defer s.cycleMu.Unlock()

	s.log.Info().Msg("Running cycle on demand")
	return s.execute(ctx), nil
}

// Status returns the current status
func (s *Scheduler) Status() Status {
	status := Status{
		State:         s.State().String(),
		Cadence:       s.cadence.String(),
		CycleInFlight: s.inFlight.Load(),
	}

	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	status.Cycles = s.cycles
	if s.lastReport != nil {
		report := *s.lastReport
		status.LastReport = &report
	}
	if status.State == domain.StateRunning.String() && !s.nextRun.IsZero() {
		next := s.nextRun
		status.NextRun = &next
	}
	return status
}

func (s *Scheduler) loop(ctx context.Context, last time.Time, stop, done chan struct{}) {
	defer close(done)

	for {
		next := s.cadence.Next(last)
		s.setNextRun(next)

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			s.markStopped(stop)
			return
		case <-timer.C:
		}

		last = time.Now()
		if !s.runScheduled(ctx, stop) {
			return
		}
	}
}

// runScheduled runs a cycle unless stop has been signalled. The check happens
// under the cycle lock so no cycle starts after Stop has returned.
func (s *Scheduler) runScheduled(ctx context.Context, stop chan struct{}) bool {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	select {
	case <-stop:
		return false
	default:
	}

	s.execute(ctx)
	return true
}

// execute runs one cycle and its follow-up jobs. Caller holds cycleMu.
func (s *Scheduler) execute(ctx context.Context) (report domain.CycleReport) {
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Msg("Cycle panicked")
			}
		}()
		report = s.runner.RunCycle(ctx)
	}()

	s.statsMu.Lock()
	s.cycles++
	last := report
	s.lastReport = &last
	s.statsMu.Unlock()

	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	for _, job := range jobs {
		s.runJob(job)
	}
	for _, hook := range hooks {
		hook(report)
	}
	return report
}

func (s *Scheduler) runJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("job", job.Name()).Msg("Job panicked")
		}
	}()

	s.log.Debug().Str("job", job.Name()).Msg("Running job")
	if err := job.Run(); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("Job failed")
		return
	}
	s.log.Debug().Str("job", job.Name()).Msg("Job completed")
}

// markStopped moves to Stopped when the loop owning stop ends on its own.
func (s *Scheduler) markStopped(stop chan struct{}) {
	s.mu.Lock()
	if s.stop != stop || s.state != domain.StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = domain.StateStopped
	close(stop)
	s.mu.Unlock()

	s.log.Info().Msg("Scheduler context cancelled, stopped")
	s.emitState(domain.StateStopped)
}

func (s *Scheduler) setNextRun(t time.Time) {
	s.statsMu.Lock()
	s.nextRun = t
	s.statsMu.Unlock()
}

func (s *Scheduler) emitState(state domain.SchedulerState) {
	if s.emitter == nil {
		return
	}
	s.emitter.EmitTyped("scheduler", &events.SchedulerStateChangedData{
		State:   state.String(),
		Cadence: s.cadence.String(),
	})
}
