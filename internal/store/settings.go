package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/timely/internal/logic"
)

// Settings are the user preferences the engine and notifiers consult.
type Settings struct {
	NotificationsEnabled bool   `yaml:"notifications_enabled"`
	SoundEnabled         bool   `yaml:"sound_enabled"`
	VibrateEnabled       bool   `yaml:"vibrate_enabled"`
	ClockFormat          string `yaml:"clock_format"`  // "12h" or "24h"
	StartOfWeek          int    `yaml:"start_of_week"` // 0 = Sunday, 1 = Monday, 6 = Saturday
}

// DefaultSettings has notifications, sound and vibration on, a 12h clock
// and Sunday as the first day of the week.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled: true,
		SoundEnabled:         true,
		VibrateEnabled:       true,
		ClockFormat:          "12h",
		StartOfWeek:          0,
	}
}

// WeekStart returns StartOfWeek as a time.Weekday.
func (s Settings) WeekStart() time.Weekday {
	return time.Weekday(s.StartOfWeek)
}

// ExampleDocument is the document used when no config file exists yet.
func ExampleDocument(now time.Time) Document {
	id := func() string { return uuid.NewString() }
	start := now

	focus := logic.TimerConfig{
		ID:             id(),
		Name:           "Focus Timer",
		Duration:       logic.Duration{Value: 3.5, Unit: logic.Hours},
		StartMode:      logic.StartAligned,
		AlignTo:        logic.Hours,
		FixedStartTime: &start,
		Enabled:        true,
		Order:          0,
		Reminders: []logic.Reminder{
			{ID: id(), Position: 0.119, Message: "Time for a water break!", Enabled: true},
			{ID: id(), Position: 0.357, Message: "Stand up and stretch!", Enabled: true},
			{ID: id(), Position: 0.595, Message: "Water break!", Enabled: true},
			{ID: id(), Position: 0.833, Message: "Almost done! Keep going!", Enabled: true},
		},
	}
	for i, p := range []float64{0.119, 0.238, 0.357, 0.476, 0.595, 0.714, 0.833} {
		focus.Markers = append(focus.Markers, logic.Marker{
			ID:        id(),
			Position:  p,
			Label:     fmt.Sprintf("%dm", 25*(i+1)),
			Color:     "#22d3ee",
			ShowLabel: i == 0,
		})
	}

	daily := logic.TimerConfig{
		ID:             id(),
		Name:           "Daily Cycle",
		Duration:       logic.Duration{Value: 24, Unit: logic.Hours},
		StartMode:      logic.StartAligned,
		AlignTo:        logic.Days,
		FixedStartTime: &start,
		Enabled:        true,
		Order:          1,
		Reminders:      []logic.Reminder{},
		Markers:        []logic.Marker{},
	}

	return Document{
		Settings: DefaultSettings(),
		Timers:   []logic.TimerConfig{focus, daily},
	}
}

func validateDocument(doc Document) error {
	if err := validateSettings(doc.Settings); err != nil {
		return err
	}
	seen := make(map[string]bool, len(doc.Timers))
	for _, t := range doc.Timers {
		if err := Validate(t); err != nil {
			return err
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate timer id %s", ErrInvalidConfig, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func validateSettings(s Settings) error {
	switch s.StartOfWeek {
	case 0, 1, 6:
	default:
		return fmt.Errorf("%w: start_of_week must be 0, 1 or 6, got %d", ErrInvalidConfig, s.StartOfWeek)
	}
	switch s.ClockFormat {
	case "", "12h", "24h":
	default:
		return fmt.Errorf("%w: clock_format must be 12h or 24h, got %q", ErrInvalidConfig, s.ClockFormat)
	}
	return nil
}

// Validate checks a single timer.
func Validate(t logic.TimerConfig) error {
	if t.ID == "" {
		return fmt.Errorf("%w: timer without id", ErrInvalidConfig)
	}
	if !t.Duration.Unit.Valid() {
		return fmt.Errorf("%w: timer %s: %v", ErrInvalidConfig, t.ID, logic.ErrInvalidUnit)
	}
	if err := t.Duration.Validate(); err != nil {
		return fmt.Errorf("%w: timer %s: %v", ErrInvalidConfig, t.ID, err)
	}

	switch t.StartMode {
	case logic.StartNow, logic.StartFixed:
	case logic.StartAligned:
		if t.AlignTo != "" && (!t.AlignTo.Valid() || t.AlignTo == logic.Milliseconds) {
			return fmt.Errorf("%w: timer %s: cannot align to %q", ErrInvalidConfig, t.ID, t.AlignTo)
		}
	default:
		return fmt.Errorf("%w: timer %s: unknown start mode %q", ErrInvalidConfig, t.ID, t.StartMode)
	}

	ids := make(map[string]bool, len(t.Reminders))
	for _, r := range t.Reminders {
		if r.ID == "" || ids[r.ID] {
			return fmt.Errorf("%w: timer %s: reminder ids must be unique and non-empty", ErrInvalidConfig, t.ID)
		}
		ids[r.ID] = true
		if !logic.ValidPosition(r.Position) {
			return fmt.Errorf("%w: timer %s: reminder %s position %v outside [0,1]", ErrInvalidConfig, t.ID, r.ID, r.Position)
		}
	}
	for _, m := range t.Markers {
		if !logic.ValidPosition(m.Position) {
			return fmt.Errorf("%w: timer %s: marker %s position %v outside [0,1]", ErrInvalidConfig, t.ID, m.ID, m.Position)
		}
	}
	return nil
}

func sortByOrder(timers []logic.TimerConfig) {
	sort.SliceStable(timers, func(i, j int) bool { return timers[i].Order < timers[j].Order })
}
