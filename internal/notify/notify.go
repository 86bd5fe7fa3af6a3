// Package notify turns a due reminder into an MQTT notification and, when
// sound is on, a buzzer pulse. Dispatcher implements scheduler.Notifier.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/timely/internal/gpio"
	"github.com/sweeney/timely/internal/logic"
	"github.com/sweeney/timely/internal/mqtt"
	"github.com/sweeney/timely/internal/store"
)

// Options configures a Dispatcher. Publisher is required.
type Options struct {
	Publisher mqtt.Publisher

	// Buzzer is optional.
	Buzzer gpio.Buzzer

	// Pulse is the buzzer duration. Zero means gpio.DefaultPulse.
	Pulse time.Duration

	// Settings supplies the sound and vibration preferences. Nil means defaults.
	Settings func() store.Settings

	Now func() time.Time
}

// Dispatcher delivers reminders.
type Dispatcher struct {
	opts Options
}

// New creates a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Publisher == nil {
		return nil, fmt.Errorf("notify: Publisher is required")
	}
	if opts.Pulse <= 0 {
		opts.Pulse = gpio.DefaultPulse
	}
	if opts.Settings == nil {
		opts.Settings = store.DefaultSettings
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{opts: opts}, nil
}

// Event builds the notification for r firing in the cycle described by st.
func (d *Dispatcher) Event(r logic.Reminder, cfg logic.TimerConfig, st logic.TimerState) mqtt.ReminderEvent {
	settings := d.opts.Settings()
	return mqtt.ReminderEvent{
		Timestamp:  d.opts.Now(),
		TimerID:    cfg.ID,
		TimerName:  cfg.Name,
		ReminderID: r.ID,
		Message:    r.Message,
		Cycle:      st.CycleCount,
		Silent:     !settings.SoundEnabled,
		Vibrate:    r.Vibrate && settings.VibrateEnabled,
	}
}

// Notify publishes the reminder. Only a publish failure is returned; a
// buzzer failure is logged and does not cause a retry.
func (d *Dispatcher) Notify(ctx context.Context, r logic.Reminder, cfg logic.TimerConfig, st logic.TimerState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ev := d.Event(r, cfg, st)
	if err := d.opts.Publisher.PublishReminder(ev); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	log.Printf("notify: %s: %s (cycle %d)", cfg.Name, r.Message, ev.Cycle)

	if d.opts.Buzzer != nil && r.Sound && !ev.Silent {
		if err := d.opts.Buzzer.Pulse(d.opts.Pulse); err != nil {
			log.Printf("notify: buzzer: %v", err)
		}
	}
	return nil
}
