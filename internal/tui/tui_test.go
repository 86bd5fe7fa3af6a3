package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeney/timely/internal/logic"
	"github.com/sweeney/timely/internal/store"
)

var t0 = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

type fakeSource struct {
	configs  []logic.TimerConfig
	settings store.Settings
}

func (f *fakeSource) Configs() []logic.TimerConfig { return f.configs }
func (f *fakeSource) Settings() store.Settings     { return f.settings }

func source() *fakeSource {
	start := t0.Add(-90 * time.Minute)
	return &fakeSource{
		settings: store.DefaultSettings(),
		configs: []logic.TimerConfig{
			{
				ID: "focus", Name: "Focus", Enabled: true,
				Duration:  logic.Duration{Value: 1, Unit: logic.Hours},
				StartMode: logic.StartFixed, FixedStartTime: &start,
			},
			{
				ID: "daily", Name: "Daily", Enabled: false,
				Duration:  logic.Duration{Value: 24, Unit: logic.Hours},
				StartMode: logic.StartAligned, AlignTo: logic.Days,
			},
			{
				ID: "bad", Name: "Bad", Enabled: true,
				Duration:  logic.Duration{Value: 0, Unit: logic.Hours},
				StartMode: logic.StartFixed, FixedStartTime: &start,
			},
		},
	}
}

func TestViewRendersTimers(t *testing.T) {
	m := New(source(), func() time.Time { return t0 })
	view := m.View()

	for _, want := range []string{"Timely", "10:00:00", "Focus", "30:00", "#1", "Daily", "paused", "Bad", "invalid duration", "q to quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewNoTimers(t *testing.T) {
	m := New(&fakeSource{settings: store.DefaultSettings()}, func() time.Time { return t0 })
	if !strings.Contains(m.View(), "No timers configured.") {
		t.Error("empty view should say so")
	}
}

func TestTickRefreshes(t *testing.T) {
	now := t0
	m := New(source(), func() time.Time { return now })

	now = t0.Add(15 * time.Minute)
	next, cmd := m.Update(tickMsg(now))
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	view := next.View()
	if !strings.Contains(view, "15:00") || !strings.Contains(view, "10:15:00") {
		t.Errorf("view not refreshed:\n%s", view)
	}
}

func TestFutureStartShowsCountdown(t *testing.T) {
	start := t0.Add(2 * time.Hour)
	src := &fakeSource{
		settings: store.DefaultSettings(),
		configs: []logic.TimerConfig{{
			ID: "later", Name: "Later", Enabled: true,
			Duration:  logic.Duration{Value: 1, Unit: logic.Hours},
			StartMode: logic.StartFixed, FixedStartTime: &start,
		}},
	}
	m := New(src, func() time.Time { return t0 })
	if !strings.Contains(m.View(), "starts in 2h 0m") {
		t.Errorf("expected countdown to start:\n%s", m.View())
	}
}

func TestNowModeEpochIsPinned(t *testing.T) {
	src := &fakeSource{
		settings: store.DefaultSettings(),
		configs: []logic.TimerConfig{{
			ID: "now", Name: "Now", Enabled: true,
			Duration:  logic.Duration{Value: 10, Unit: logic.Minutes},
			StartMode: logic.StartNow,
		}},
	}
	now := t0
	m := New(src, func() time.Time { return now })

	now = t0.Add(4 * time.Minute)
	next, _ := m.Update(tickMsg(now))
	got := next.(Model).rows[0].state
	if got.Elapsed != 4*time.Minute {
		t.Errorf("elapsed = %v, want 4m from the pinned epoch", got.Elapsed)
	}
}

func TestQuitKeys(t *testing.T) {
	m := New(source(), func() time.Time { return t0 })
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", key)
		}
	}
}

func TestWindowResize(t *testing.T) {
	m := New(source(), func() time.Time { return t0 })
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if w := next.(Model).bar.Width; w != 120-20-10-16 {
		t.Errorf("bar width = %d", w)
	}
	next, _ = m.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	if w := next.(Model).bar.Width; w != 10 {
		t.Errorf("narrow bar width = %d, want 10", w)
	}
}

func TestErrorRowUsesSentinel(t *testing.T) {
	m := New(source(), func() time.Time { return t0 })
	if !errors.Is(m.rows[2].err, logic.ErrInvalidDuration) {
		t.Errorf("err = %v, want ErrInvalidDuration", m.rows[2].err)
	}
}
