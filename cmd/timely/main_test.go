package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/timely/internal/gpio"
	"github.com/sweeney/timely/internal/logic"
	"github.com/sweeney/timely/internal/mqtt"
	"github.com/sweeney/timely/internal/status"
	"github.com/sweeney/timely/internal/store"
)

var t0 = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func hourlyTimer() logic.TimerConfig {
	start := t0
	return logic.TimerConfig{
		ID:             "focus",
		Name:           "Focus",
		Duration:       logic.Duration{Value: 1, Unit: logic.Hours},
		StartMode:      logic.StartFixed,
		FixedStartTime: &start,
		Enabled:        true,
		Reminders: []logic.Reminder{
			{ID: "half", Position: 0.5, Message: "Half way", Sound: true, Enabled: true},
		},
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(store.Document{
		Settings: store.DefaultSettings(),
		Timers:   []logic.TimerConfig{hourlyTimer()},
	})
	if err != nil {
		t.Fatal(err)
	}
	return st
}

type loopResult struct {
	err error
}

// startLoop runs runLoop in a goroutine and returns its tick and signal
// channels plus a channel that receives its result.
func startLoop(t *testing.T, st *store.Store, pub *mqtt.FakePublisher, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time) (chan time.Time, chan os.Signal, chan loopResult) {
	t.Helper()
	sched, err := newScheduler(st, pub, nil, tracker, 0, nil, func() time.Time { return t0 })
	if err != nil {
		t.Fatal(err)
	}
	tick := make(chan time.Time)
	sig := make(chan os.Signal)
	done := make(chan loopResult, 1)
	go func() {
		done <- loopResult{err: runLoop(sched, st, pub, pub, tracker, heartbeat, now, tick, sig)}
	}()
	return tick, sig, done
}

func wait(t *testing.T, done chan loopResult) {
	t.Helper()
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("runLoop: %v", r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return")
	}
}

func TestRunLoopShutdownPublishesSnapshot(t *testing.T) {
	st := newTestStore(t)
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	tracker := status.NewTracker(t0, status.Config{Broker: "tcp://test:1883"})

	tick, sig, done := startLoop(t, st, pub, tracker, 0, fakeClock(t0, time.Second))
	tick <- t0
	sig <- syscall.SIGTERM
	wait(t, done)

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	ev := pub.SystemEvents[0]
	if ev.Event != mqtt.EventShutdown || ev.Reason != "SIGTERM" || !ev.Retained {
		t.Errorf("shutdown event: %+v", ev)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(pub.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("payload event: %+v", parsed.Status)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("payload should report MQTT connected")
	}
	if len(parsed.Status.Timers) != 1 || parsed.Status.Timers[0].ID != "focus" {
		t.Errorf("payload timers: %+v", parsed.Status.Timers)
	}
}

func TestRunLoopSIGINT(t *testing.T) {
	st := newTestStore(t)
	pub := mqtt.NewFakePublisher()

	_, sig, done := startLoop(t, st, pub, nil, 0, fakeClock(t0, time.Second))
	sig <- syscall.SIGINT
	wait(t, done)

	if len(pub.SystemEvents) != 1 || pub.SystemEvents[0].Reason != "SIGINT" {
		t.Fatalf("events: %+v", pub.SystemEvents)
	}
	// Without a tracker the simple system payload is used.
	var parsed mqtt.SystemPayload
	if err := json.Unmarshal(pub.SystemPayloads[0], &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("payload: %s", pub.SystemPayloads[0])
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	st := newTestStore(t)
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(t0, status.Config{})

	// now() yields t0 (loop start), then t0+10m per tick.
	tick, sig, done := startLoop(t, st, pub, tracker, 15*time.Minute, fakeClock(t0, 10*time.Minute))
	for i := 0; i < 4; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	wait(t, done)

	var events []string
	for _, ev := range pub.SystemEvents {
		events = append(events, ev.Event)
	}
	if got := strings.Join(events, ","); got != "HEARTBEAT,HEARTBEAT,SHUTDOWN" {
		t.Errorf("events = %s", got)
	}
	if !pub.SystemEvents[0].Timestamp.Equal(t0.Add(20 * time.Minute)) {
		t.Errorf("first heartbeat at %v", pub.SystemEvents[0].Timestamp)
	}
	if !pub.SystemEvents[1].Timestamp.Equal(t0.Add(40 * time.Minute)) {
		t.Errorf("second heartbeat at %v", pub.SystemEvents[1].Timestamp)
	}
}

func TestRunLoopHeartbeatDisabled(t *testing.T) {
	st := newTestStore(t)
	pub := mqtt.NewFakePublisher()

	tick, sig, done := startLoop(t, st, pub, nil, 0, fakeClock(t0, time.Hour))
	for i := 0; i < 3; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	wait(t, done)

	if len(pub.SystemEvents) != 1 {
		t.Errorf("expected only shutdown, got %d events", len(pub.SystemEvents))
	}
}

func TestRunLoopHeartbeatPublishErrorContinues(t *testing.T) {
	st := newTestStore(t)
	pub := mqtt.NewFakePublisher()
	pub.PublishSystemError = os.ErrDeadlineExceeded

	tick, sig, done := startLoop(t, st, pub, nil, time.Minute, fakeClock(t0, time.Hour))
	tick <- time.Time{}
	tick <- time.Time{}
	sig <- syscall.SIGTERM
	wait(t, done)
}

func TestSchedulerWiring(t *testing.T) {
	st := newTestStore(t)
	pub := mqtt.NewFakePublisher()
	buz := gpio.NewFakeBuzzer()
	tracker := status.NewTracker(t0, status.Config{})
	at := t0.Add(30 * time.Minute)

	sched, err := newScheduler(st, pub, buz, tracker, 0, nil, func() time.Time { return at })
	if err != nil {
		t.Fatal(err)
	}
	fired := sched.Tick(context.Background(), at)
	if len(fired) != 1 || fired[0].ReminderID != "half" {
		t.Fatalf("fired = %+v", fired)
	}

	// Published, buzzed, written back and counted.
	events := pub.RemindersSnapshot()
	if len(events) != 1 || events[0].Title() != "Timely: Focus" || events[0].Message != "Half way" {
		t.Errorf("published = %+v", events)
	}
	if buz.Count() != 1 {
		t.Errorf("buzzer pulses = %d, want 1", buz.Count())
	}
	cfg, _ := st.Timer("focus")
	if lt := cfg.Reminders[0].LastTriggered; lt == nil || !lt.Equal(at) {
		t.Errorf("last triggered = %v, want %v", lt, at)
	}
	if tracker.Snapshot().FiredTotal != 1 {
		t.Error("tracker should count the reminder")
	}

	// Next tick in the same window does not fire again.
	if again := sched.Tick(context.Background(), at.Add(100*time.Millisecond)); len(again) != 0 {
		t.Errorf("fired twice: %+v", again)
	}
}

func TestSchedulerWiringRespectsSettings(t *testing.T) {
	st := newTestStore(t)
	if err := st.UpdateSettings(func(s *store.Settings) { s.NotificationsEnabled = false }); err != nil {
		t.Fatal(err)
	}
	pub := mqtt.NewFakePublisher()
	at := t0.Add(30 * time.Minute)

	sched, err := newScheduler(st, pub, nil, nil, 0, nil, func() time.Time { return at })
	if err != nil {
		t.Fatal(err)
	}
	if fired := sched.Tick(context.Background(), at); len(fired) != 0 {
		t.Errorf("notifications disabled but fired %+v", fired)
	}
	if _, err := sched.State("focus"); err != nil {
		t.Errorf("state should still be computed: %v", err)
	}
}

func TestPrintStates(t *testing.T) {
	paused := hourlyTimer()
	paused.ID, paused.Name, paused.Enabled = "paused", "Paused", false
	broken := hourlyTimer()
	broken.ID, broken.Name = "broken", "Broken"
	broken.Duration.Value = 0

	var buf bytes.Buffer
	err := printStates(&buf, []logic.TimerConfig{hourlyTimer(), paused, broken}, store.DefaultSettings(), t0.Add(75*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "Focus: 25.0% cycle 1, 45:00 remaining" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Paused: paused at") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Broken: error:") {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestPrintStatesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printStates(&buf, nil, store.DefaultSettings(), t0); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "no timers configured\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestHeartbeatDue(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		interval time.Duration
		want     bool
	}{
		{"disabled", time.Hour, 0, false},
		{"not yet", 14 * time.Minute, 15 * time.Minute, false},
		{"exactly", 15 * time.Minute, 15 * time.Minute, true},
		{"late", 20 * time.Minute, 15 * time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := heartbeatDue(t0, t0.Add(tt.elapsed), tt.interval); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignalName(t *testing.T) {
	if signalName(syscall.SIGINT) != "SIGINT" || signalName(syscall.SIGTERM) != "SIGTERM" {
		t.Error("unexpected signal names")
	}
	if signalName(syscall.SIGHUP) != "UNKNOWN" {
		t.Error("other signals should be UNKNOWN")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv(envBroker, "")
	if got := envOr(envBroker, "tcp://fallback:1883"); got != "tcp://fallback:1883" {
		t.Errorf("got %q", got)
	}
	t.Setenv(envBroker, "tcp://env:1883")
	if got := envOr(envBroker, "tcp://fallback:1883"); got != "tcp://env:1883" {
		t.Errorf("got %q", got)
	}
}

func TestEnvVarName(t *testing.T) {
	if envBroker != "TIMELY_BROKER" {
		t.Errorf("env var constant: got %q", envBroker)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	if p := defaultConfigPath(); !strings.HasSuffix(p, "timely.yaml") {
		t.Errorf("default config path = %q", p)
	}
}
