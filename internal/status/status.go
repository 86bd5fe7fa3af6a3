// Package status provides a thread-safe status tracker for the timely daemon.
// It is read by the HTTP handlers, the heartbeat and the shutdown event.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/timely/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	ConfigPath  string
}

// Timer is one configured timer together with its last computed state.
// HasState is false when the state could not be computed this tick.
type Timer struct {
	ID       string
	Name     string
	Enabled  bool
	Duration logic.Duration
	State    logic.TimerState
	HasState bool
}

// FiredReminder records the most recent dispatch.
type FiredReminder struct {
	TimerID    string
	ReminderID string
	At         time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Timers               []Timer
	NotificationsEnabled bool
	FiredTotal           int
	FiredByTimer         map[string]int
	LastFired            *FiredReminder
	StartTime            time.Time
	Now                  time.Time
	MQTTConnected        bool
	Config               Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:    startTime,
			Config:       cfg,
			FiredByTimer: make(map[string]int),
		},
	}
}

// Update replaces the timer list. Called from runLoop on every tick.
func (t *Tracker) Update(timers []Timer, notificationsEnabled bool) {
	timers = append([]Timer(nil), timers...)
	t.mu.Lock()
	t.snap.Timers = timers
	t.snap.NotificationsEnabled = notificationsEnabled
	t.mu.Unlock()
}

// RecordFired counts one dispatched reminder.
func (t *Tracker) RecordFired(timerID, reminderID string, at time.Time) {
	t.mu.Lock()
	t.snap.FiredTotal++
	t.snap.FiredByTimer[timerID]++
	t.snap.LastFired = &FiredReminder{TimerID: timerID, ReminderID: reminderID, At: at}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Timers = append([]Timer(nil), t.snap.Timers...)
	s.FiredByTimer = make(map[string]int, len(t.snap.FiredByTimer))
	for id, n := range t.snap.FiredByTimer {
		s.FiredByTimer[id] = n
	}
	if t.snap.LastFired != nil {
		lf := *t.snap.LastFired
		s.LastFired = &lf
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// Timers pairs configs with the states the scheduler computed. Configs
// missing from states are reported with HasState false.
func Timers(configs []logic.TimerConfig, states map[string]logic.TimerState) []Timer {
	out := make([]Timer, 0, len(configs))
	for _, c := range configs {
		st, ok := states[c.ID]
		out = append(out, Timer{
			ID:       c.ID,
			Name:     c.Name,
			Enabled:  c.Enabled,
			Duration: c.Duration,
			State:    st,
			HasState: ok,
		})
	}
	return out
}
