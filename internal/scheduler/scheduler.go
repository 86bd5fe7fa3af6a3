// Package scheduler runs the polling loop that keeps timer states current
// and dispatches due reminders, each at most once per cycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/timely/internal/logic"
)

// DefaultInterval is the polling interval used when Options.Interval is zero.
const DefaultInterval = 100 * time.Millisecond

// minTolerance is the smallest due window, used when ticks are fast.
const minTolerance = 500 * time.Millisecond

var (
	// ErrAlreadyStarted is returned by Start on a running scheduler.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrStopped is returned by Start after Stop. A stopped scheduler cannot be restarted.
	ErrStopped = errors.New("scheduler stopped")
)

// Notifier delivers a due reminder. st is the state the reminder was found
// due in. A returned error leaves the reminder unmarked so it is retried on
// the next tick inside its window.
type Notifier interface {
	Notify(ctx context.Context, r logic.Reminder, cfg logic.TimerConfig, st logic.TimerState) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, r logic.Reminder, cfg logic.TimerConfig, st logic.TimerState) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, r logic.Reminder, cfg logic.TimerConfig, st logic.TimerState) error {
	return f(ctx, r, cfg, st)
}

// Options configures a Scheduler. Configs and Notifier are required.
type Options struct {
	// Interval between ticks. Zero means DefaultInterval.
	Interval time.Duration

	// Configs is called on every tick, so live edits are picked up.
	Configs func() []logic.TimerConfig

	Notifier Notifier

	// OnFired is called after a successful dispatch so the caller can
	// write LastTriggered back to its configuration. Optional.
	OnFired func(configID, reminderID string, at time.Time)

	// NotificationsEnabled gates reminder evaluation. Nil means enabled.
	NotificationsEnabled func() bool

	// WeekStart picks the first day of week-aligned timers. Nil means Sunday.
	WeekStart func() time.Weekday

	// Now and Tick are injectable for tests. Nil means time.Now and a
	// time.Ticker at Interval.
	Now  func() time.Time
	Tick <-chan time.Time

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Fired describes one successful dispatch.
type Fired struct {
	ConfigID   string
	ReminderID string
	Cycle      int64
	At         time.Time
}

type runState int

const (
	stateIdle runState = iota
	stateRunning
	stateStopped
)

// Scheduler is the polling loop. All evaluation happens in one goroutine
// and ticks never overlap; States may be read concurrently.
type Scheduler struct {
	opts      Options
	tolerance time.Duration
	logger    *log.Logger

	mu     sync.Mutex
	state  runState
	cancel context.CancelFunc
	done   chan struct{}

	stopped atomic.Bool

	statesMu sync.RWMutex
	states   map[string]logic.TimerState

	// Owned by whoever holds tickMu.
	tickMu   sync.Mutex
	fired    firedCache
	epochs   map[string]time.Time
	lastTick time.Time
	badCfg   map[string]string // config id -> last logged error
}

// New creates an idle Scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Configs == nil {
		return nil, fmt.Errorf("scheduler: Configs is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("scheduler: Notifier is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Scheduler{
		opts:      opts,
		tolerance: Tolerance(opts.Interval),
		logger:    logger,
		states:    make(map[string]logic.TimerState),
		fired:     make(firedCache),
		epochs:    make(map[string]time.Time),
		badCfg:    make(map[string]string),
	}, nil
}

// Tolerance returns the due window for a polling interval: two intervals,
// never less than 500ms, so one late or dropped tick cannot skip a reminder.
func Tolerance(interval time.Duration) time.Duration {
	if t := 2 * interval; t > minTolerance {
		return t
	}
	return minTolerance
}

// Start runs one tick immediately and then keeps ticking in the background
// until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case stateRunning:
		s.mu.Unlock()
		return ErrAlreadyStarted
	case stateStopped:
		s.mu.Unlock()
		return ErrStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = stateRunning

	tick := s.opts.Tick
	var ticker *time.Ticker
	if tick == nil {
		ticker = time.NewTicker(s.opts.Interval)
		tick = ticker.C
	}
	s.mu.Unlock()

	s.Tick(ctx, s.opts.Now())

	go s.run(ctx, tick, ticker)
	return nil
}

func (s *Scheduler) run(ctx context.Context, tick <-chan time.Time, ticker *time.Ticker) {
	defer close(s.done)
	if ticker != nil {
		defer ticker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return
		case _, ok := <-tick:
			if !ok {
				s.markStopped()
				return
			}
			if s.stopped.Load() {
				return
			}
			// time.Ticker holds at most one pending tick, so a slow tick
			// drops fires instead of queueing them.
			s.Tick(ctx, s.opts.Now())
		}
	}
}

// Stop ends the loop and waits for an in-flight tick to finish. No dispatch
// begins after Stop returns. The per-cycle record is discarded. It must not
// be called from inside a Notifier.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.state = stateStopped
	s.stopped.Store(true)
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.tickMu.Lock()
	s.fired = make(firedCache)
	s.tickMu.Unlock()
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	s.state = stateStopped
	s.stopped.Store(true)
	s.mu.Unlock()
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRunning
}

// Tick evaluates every timer at now and dispatches due reminders. The
// background loop calls it on each fire; tests call it directly.
// It returns the reminders dispatched by this tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []Fired {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if !s.lastTick.IsZero() && now.Before(s.lastTick) {
		s.logger.Printf("scheduler: clock moved backward by %v, recomputing from new time", s.lastTick.Sub(now))
	}
	s.lastTick = now

	// Copy so pinned epochs never leak into the caller's slice.
	configs := append([]logic.TimerConfig(nil), s.opts.Configs()...)
	weekStart := time.Sunday
	if s.opts.WeekStart != nil {
		weekStart = s.opts.WeekStart()
	}

	states := make(map[string]logic.TimerState, len(configs))
	seen := make(map[string]bool, len(configs))
	for i := range configs {
		seen[configs[i].ID] = true
		configs[i] = s.pinEpoch(configs[i], now)
		st, err := logic.ComputeStateWeekStart(configs[i], now, weekStart)
		if err != nil {
			s.configError(configs[i].ID, err)
			continue
		}
		states[configs[i].ID] = st
	}
	for id := range s.badCfg {
		if _, ok := states[id]; ok || !seen[id] {
			delete(s.badCfg, id)
		}
	}

	s.statesMu.Lock()
	s.states = states
	s.statesMu.Unlock()

	s.fired.retain(states)

	if s.opts.NotificationsEnabled != nil && !s.opts.NotificationsEnabled() {
		return nil
	}

	var fired []Fired
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		st, ok := states[cfg.ID]
		if !ok {
			continue
		}

		due, err := logic.DueReminders(cfg, st, s.tolerance)
		if err != nil {
			s.configError(cfg.ID, err)
			continue
		}

		for _, id := range due {
			if s.fired.has(cfg.ID, st, id) {
				continue
			}
			if s.stopped.Load() {
				return fired
			}
			r, ok := findReminder(cfg, id)
			if !ok {
				continue
			}

			if err := s.dispatch(ctx, r, cfg, st); err != nil {
				s.logger.Printf("scheduler: reminder %s/%s dispatch failed: %v", cfg.ID, id, err)
				continue
			}

			s.fired.record(cfg.ID, st, id, now)
			if s.opts.OnFired != nil {
				s.opts.OnFired(cfg.ID, id, now)
			}
			fired = append(fired, Fired{ConfigID: cfg.ID, ReminderID: id, Cycle: st.CycleCount, At: now})
		}
	}
	return fired
}

// configError logs err for a config once, until the error changes or the
// config computes again.
func (s *Scheduler) configError(id string, err error) {
	msg := err.Error()
	if s.badCfg[id] == msg {
		return
	}
	s.badCfg[id] = msg
	s.logger.Printf("scheduler: %v", err)
}

// dispatch calls the notifier, turning a panic into an error so one bad
// reminder cannot take down the tick.
func (s *Scheduler) dispatch(ctx context.Context, r logic.Reminder, cfg logic.TimerConfig, st logic.TimerState) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("notifier panic: %v", p)
		}
	}()
	return s.opts.Notifier.Notify(ctx, r, cfg, st)
}

// pinEpoch gives now-mode timers without a start time a fixed epoch: the
// first instant this scheduler saw them.
func (s *Scheduler) pinEpoch(cfg logic.TimerConfig, now time.Time) logic.TimerConfig {
	if cfg.StartMode == logic.StartAligned || cfg.FixedStartTime != nil || !cfg.Enabled {
		return cfg
	}
	epoch, ok := s.epochs[cfg.ID]
	if !ok {
		epoch = now
		s.epochs[cfg.ID] = epoch
	}
	cfg.FixedStartTime = &epoch
	return cfg
}

// States returns a copy of the states computed by the last tick.
func (s *Scheduler) States() map[string]logic.TimerState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	out := make(map[string]logic.TimerState, len(s.states))
	for id, st := range s.states {
		out[id] = st
	}
	return out
}

// State returns the last computed state for one timer.
func (s *Scheduler) State(configID string) (logic.TimerState, error) {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	st, ok := s.states[configID]
	if !ok {
		return logic.TimerState{}, fmt.Errorf("%w: %s", logic.ErrMissingState, configID)
	}
	return st, nil
}

// Tolerance returns the due window this scheduler uses.
func (s *Scheduler) Tolerance() time.Duration {
	return s.tolerance
}

func findReminder(cfg logic.TimerConfig, id string) (logic.Reminder, bool) {
	for _, r := range cfg.Reminders {
		if r.ID == id {
			return r, true
		}
	}
	return logic.Reminder{}, false
}
