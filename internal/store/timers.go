package store

import (
	"fmt"
	"time"

	"github.com/sweeney/timely/internal/logic"
)

// DefaultTimer returns the settings a new timer starts with: one hour,
// aligned to the hour, enabled.
func DefaultTimer() logic.TimerConfig {
	return logic.TimerConfig{
		Name:      "New Timer",
		Duration:  logic.Duration{Value: 1, Unit: logic.Hours},
		StartMode: logic.StartAligned,
		AlignTo:   logic.Hours,
		Enabled:   true,
		Reminders: []logic.Reminder{},
		Markers:   []logic.Marker{},
	}
}

// DefaultReminder returns a half-way reminder with sound and vibration.
func DefaultReminder() logic.Reminder {
	return logic.Reminder{
		Position: 0.5,
		Message:  "Reminder!",
		Sound:    true,
		Vibrate:  true,
		Enabled:  true,
	}
}

// DefaultMarker returns a half-way white marker.
func DefaultMarker() logic.Marker {
	return logic.Marker{Position: 0.5, Color: "#ffffff"}
}

// AddTimer appends cfg and returns its id. Missing ids are generated, the
// start time defaults to now and the timer goes to the end of the list.
func (s *Store) AddTimer(cfg logic.TimerConfig) (string, error) {
	cfg = cloneTimer(cfg)
	if cfg.ID == "" {
		cfg.ID = newID()
	}
	if cfg.FixedStartTime == nil {
		now := s.now()
		cfg.FixedStartTime = &now
	}
	for i := range cfg.Reminders {
		if cfg.Reminders[i].ID == "" {
			cfg.Reminders[i].ID = newID()
		}
	}
	for i := range cfg.Markers {
		if cfg.Markers[i].ID == "" {
			cfg.Markers[i].ID = newID()
		}
	}

	err := s.mutate(func(doc *Document) error {
		if indexOfTimer(doc.Timers, cfg.ID) >= 0 {
			return fmt.Errorf("%w: duplicate timer id %s", ErrInvalidConfig, cfg.ID)
		}
		cfg.Order = len(doc.Timers)
		doc.Timers = append(doc.Timers, cfg)
		return nil
	})
	if err != nil {
		return "", err
	}
	return cfg.ID, nil
}

// UpdateTimer applies fn to the timer. The id cannot be changed.
func (s *Store) UpdateTimer(id string, fn func(*logic.TimerConfig)) error {
	return s.withTimer(id, func(t *logic.TimerConfig) error {
		fn(t)
		t.ID = id
		return nil
	})
}

// DeleteTimer removes the timer.
func (s *Store) DeleteTimer(id string) error {
	return s.mutate(func(doc *Document) error {
		i := indexOfTimer(doc.Timers, id)
		if i < 0 {
			return fmt.Errorf("timer %s: %w", id, ErrNotFound)
		}
		doc.Timers = append(doc.Timers[:i], doc.Timers[i+1:]...)
		return nil
	})
}

// ToggleTimer flips Enabled.
func (s *Store) ToggleTimer(id string) error {
	return s.withTimer(id, func(t *logic.TimerConfig) error {
		t.Enabled = !t.Enabled
		return nil
	})
}

// ReorderTimers moves the timer at display position from to position to
// and renumbers Order.
func (s *Store) ReorderTimers(from, to int) error {
	return s.mutate(func(doc *Document) error {
		n := len(doc.Timers)
		if from < 0 || from >= n || to < 0 || to >= n {
			return fmt.Errorf("%w: reorder %d -> %d out of range", ErrInvalidConfig, from, to)
		}
		sortByOrder(doc.Timers)
		moved := doc.Timers[from]
		rest := append(doc.Timers[:from:from], doc.Timers[from+1:]...)
		doc.Timers = append(rest[:to:to], append([]logic.TimerConfig{moved}, rest[to:]...)...)
		for i := range doc.Timers {
			doc.Timers[i].Order = i
		}
		return nil
	})
}

// AddReminder appends r to a timer and returns its id.
func (s *Store) AddReminder(timerID string, r logic.Reminder) (string, error) {
	if r.ID == "" {
		r.ID = newID()
	}
	err := s.withTimer(timerID, func(t *logic.TimerConfig) error {
		t.Reminders = append(t.Reminders, r)
		return nil
	})
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

// UpdateReminder applies fn to one reminder.
func (s *Store) UpdateReminder(timerID, reminderID string, fn func(*logic.Reminder)) error {
	return s.withReminder(timerID, reminderID, func(r *logic.Reminder) {
		fn(r)
		r.ID = reminderID
	})
}

// DeleteReminder removes one reminder.
func (s *Store) DeleteReminder(timerID, reminderID string) error {
	return s.withTimer(timerID, func(t *logic.TimerConfig) error {
		for i := range t.Reminders {
			if t.Reminders[i].ID == reminderID {
				t.Reminders = append(t.Reminders[:i], t.Reminders[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("reminder %s/%s: %w", timerID, reminderID, ErrNotFound)
	})
}

// MarkReminderTriggered records that a reminder fired at the given time.
// The daemon wires it as the scheduler's write-through callback.
func (s *Store) MarkReminderTriggered(timerID, reminderID string, at time.Time) error {
	return s.withReminder(timerID, reminderID, func(r *logic.Reminder) {
		r.LastTriggered = &at
	})
}

// AddMarker appends m to a timer and returns its id.
func (s *Store) AddMarker(timerID string, m logic.Marker) (string, error) {
	if m.ID == "" {
		m.ID = newID()
	}
	err := s.withTimer(timerID, func(t *logic.TimerConfig) error {
		t.Markers = append(t.Markers, m)
		return nil
	})
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// UpdateMarker applies fn to one marker.
func (s *Store) UpdateMarker(timerID, markerID string, fn func(*logic.Marker)) error {
	return s.withTimer(timerID, func(t *logic.TimerConfig) error {
		for i := range t.Markers {
			if t.Markers[i].ID == markerID {
				fn(&t.Markers[i])
				t.Markers[i].ID = markerID
				return nil
			}
		}
		return fmt.Errorf("marker %s/%s: %w", timerID, markerID, ErrNotFound)
	})
}

// DeleteMarker removes one marker.
func (s *Store) DeleteMarker(timerID, markerID string) error {
	return s.withTimer(timerID, func(t *logic.TimerConfig) error {
		for i := range t.Markers {
			if t.Markers[i].ID == markerID {
				t.Markers = append(t.Markers[:i], t.Markers[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("marker %s/%s: %w", timerID, markerID, ErrNotFound)
	})
}

func (s *Store) withTimer(id string, fn func(*logic.TimerConfig) error) error {
	return s.mutate(func(doc *Document) error {
		i := indexOfTimer(doc.Timers, id)
		if i < 0 {
			return fmt.Errorf("timer %s: %w", id, ErrNotFound)
		}
		return fn(&doc.Timers[i])
	})
}

func (s *Store) withReminder(timerID, reminderID string, fn func(*logic.Reminder)) error {
	return s.withTimer(timerID, func(t *logic.TimerConfig) error {
		for i := range t.Reminders {
			if t.Reminders[i].ID == reminderID {
				fn(&t.Reminders[i])
				return nil
			}
		}
		return fmt.Errorf("reminder %s/%s: %w", timerID, reminderID, ErrNotFound)
	})
}
