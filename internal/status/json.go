package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/timely/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event                string        `json:"event,omitempty"`
	Reason               string        `json:"reason,omitempty"`
	UptimeSeconds        int64         `json:"uptime_seconds"`
	StartTime            string        `json:"start_time"`
	Timestamp            string        `json:"timestamp"`
	NotificationsEnabled bool          `json:"notifications_enabled"`
	MQTT                 MQTTStatus    `json:"mqtt"`
	Reminders            RemindersJSON `json:"reminders"`
	Timers               []TimerJSON   `json:"timers"`
	Config               ConfigJSON    `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// RemindersJSON summarizes dispatched reminders.
type RemindersJSON struct {
	Fired     int            `json:"fired"`
	ByTimer   map[string]int `json:"by_timer"`
	LastFired *LastFiredJSON `json:"last_fired,omitempty"`
}

// LastFiredJSON is the most recent dispatch.
type LastFiredJSON struct {
	TimerID    string `json:"timer_id"`
	ReminderID string `json:"reminder_id"`
	At         string `json:"at"`
}

// TimerJSON is the JSON representation of one timer and its state.
type TimerJSON struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Enabled    bool           `json:"enabled"`
	Duration   logic.Duration `json:"duration"`
	Active     bool           `json:"active"`
	Progress   float64        `json:"progress"`
	ElapsedMs  int64          `json:"elapsed_ms"`
	RemainMs   int64          `json:"remaining_ms"`
	Remaining  string         `json:"remaining"`
	Cycle      int64          `json:"cycle"`
	CycleStart string         `json:"cycle_start,omitempty"`
	Error      bool           `json:"error,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	ConfigPath  string `json:"config_path"`
}

// FormatTimer converts one timer to its JSON form.
func FormatTimer(t Timer) TimerJSON {
	out := TimerJSON{
		ID:       t.ID,
		Name:     t.Name,
		Enabled:  t.Enabled,
		Duration: t.Duration,
		Error:    !t.HasState,
	}
	if !t.HasState {
		return out
	}
	st := t.State
	out.Active = st.IsActive
	out.Progress = st.Progress
	out.ElapsedMs = st.Elapsed.Milliseconds()
	out.RemainMs = st.Remaining.Milliseconds()
	out.Remaining = logic.FormatTimeRemaining(st.Remaining)
	out.Cycle = st.CycleCount
	if !st.CurrentCycleStart.IsZero() {
		out.CycleStart = st.CurrentCycleStart.UTC().Format(time.RFC3339)
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	timers := make([]TimerJSON, 0, len(snap.Timers))
	for _, t := range snap.Timers {
		timers = append(timers, FormatTimer(t))
	}

	byTimer := snap.FiredByTimer
	if byTimer == nil {
		byTimer = map[string]int{}
	}
	inner := StatusInner{
		UptimeSeconds:        int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:            snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:            snap.Now.UTC().Format(time.RFC3339),
		NotificationsEnabled: snap.NotificationsEnabled,
		MQTT:                 MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Reminders:            RemindersJSON{Fired: snap.FiredTotal, ByTimer: byTimer},
		Timers:               timers,
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			ConfigPath:  snap.Config.ConfigPath,
		},
	}
	if lf := snap.LastFired; lf != nil {
		inner.Reminders.LastFired = &LastFiredJSON{
			TimerID:    lf.TimerID,
			ReminderID: lf.ReminderID,
			At:         lf.At.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
