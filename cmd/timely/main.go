// Command timely runs repeating cycle timers and publishes their reminders to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sweeney/timely/internal/gpio"
	"github.com/sweeney/timely/internal/logic"
	"github.com/sweeney/timely/internal/mqtt"
	"github.com/sweeney/timely/internal/notify"
	"github.com/sweeney/timely/internal/scheduler"
	"github.com/sweeney/timely/internal/status"
	"github.com/sweeney/timely/internal/store"
	"github.com/sweeney/timely/internal/tui"
	"github.com/sweeney/timely/internal/web"
)

const envBroker = "TIMELY_BROKER"

// statusInterval is how often runLoop refreshes the status tracker.
const statusInterval = time.Second

type options struct {
	configPath string
	tick       time.Duration
	broker     string
	heartbeat  time.Duration
	httpAddr   string
	buzzerPin  int
	printState bool
	watch      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", defaultConfigPath(), "Timer configuration file (YAML)")
	flag.DurationVar(&opts.tick, "tick", scheduler.DefaultInterval, "Scheduler polling interval")
	flag.StringVar(&opts.broker, "broker", envOr(envBroker, "tcp://localhost:1883"), "MQTT broker address (env "+envBroker+")")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&opts.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.IntVar(&opts.buzzerPin, "buzzer-pin", -1, fmt.Sprintf("BCM pin for the reminder buzzer, e.g. %d (-1 to disable)", gpio.PinBuzzer))
	flag.BoolVar(&opts.printState, "print-state", false, "Print current timer states and exit")
	flag.BoolVar(&opts.watch, "watch", false, "Show a live terminal view of the timers")

	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	st, err := store.Open(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if opts.printState {
		return printStates(os.Stdout, st.Configs(), st.Settings(), time.Now())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if opts.watch {
		// The terminal belongs to the watch view.
		log.SetOutput(io.Discard)
	}

	if _, err := os.Stat(st.Path()); os.IsNotExist(err) {
		if err := st.Save(); err != nil {
			return fmt.Errorf("write example config: %w", err)
		}
		log.Printf("wrote example config to %s", st.Path())
	}
	watcher, err := st.Watch(ctx, store.DefaultDebounce, nil)
	if err != nil {
		log.Printf("config watch disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	if opts.watch {
		return tui.Run(st)
	}

	publisher, err := mqtt.NewRealPublisher(opts.broker, "timely")
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	var buzzer gpio.Buzzer
	if opts.buzzerPin >= 0 {
		b, err := gpio.NewRealBuzzer(opts.buzzerPin)
		if err != nil {
			return fmt.Errorf("init buzzer: %w", err)
		}
		defer b.Close()
		buzzer = b
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      opts.tick.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Broker:      opts.broker,
		HTTPAddr:    opts.httpAddr,
		ConfigPath:  st.Path(),
	})

	sched, err := newScheduler(st, publisher, buzzer, tracker, opts.tick, nil, time.Now)
	if err != nil {
		return err
	}

	tracker.SetMQTTConnected(publisher.IsConnected())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker, st)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	log.Printf("started: config=%s timers=%d tick=%v broker=%s heartbeat=%v",
		st.Path(), len(st.Configs()), opts.tick, opts.broker, opts.heartbeat)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sched, st, publisher, publisher, tracker, opts.heartbeat, time.Now, ticker.C, sigCh)
}

// newScheduler wires the store, notifier and tracker into a scheduler.
// tick and now are injectable for tests.
func newScheduler(st *store.Store, publisher mqtt.Publisher, buzzer gpio.Buzzer, tracker *status.Tracker, interval time.Duration, tick <-chan time.Time, now func() time.Time) (*scheduler.Scheduler, error) {
	dispatcher, err := notify.New(notify.Options{
		Publisher: publisher,
		Buzzer:    buzzer,
		Settings:  st.Settings,
		Now:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}

	sched, err := scheduler.New(scheduler.Options{
		Interval: interval,
		Configs:  st.Configs,
		Notifier: dispatcher,
		OnFired: func(configID, reminderID string, at time.Time) {
			if err := st.MarkReminderTriggered(configID, reminderID, at); err != nil {
				log.Printf("record reminder %s/%s: %v", configID, reminderID, err)
			}
			if tracker != nil {
				tracker.RecordFired(configID, reminderID, at)
			}
		},
		NotificationsEnabled: func() bool { return st.Settings().NotificationsEnabled },
		WeekStart:            func() time.Weekday { return st.Settings().WeekStart() },
		Now:                  now,
		Tick:                 tick,
	})
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	return sched, nil
}

// runLoop keeps the status tracker current, publishes heartbeats and handles
// shutdown. Reminders are dispatched by the scheduler's own goroutine.
func runLoop(sched *scheduler.Scheduler, st *store.Store, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	refresh := func() {
		if tracker == nil {
			return
		}
		tracker.Update(status.Timers(st.Configs(), sched.States()), st.Settings().NotificationsEnabled)
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			sched.Stop()

			reason := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     mqtt.EventShutdown,
				Reason:    reason,
				Retained:  true,
			}
			if tracker != nil {
				refresh()
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), mqtt.EventShutdown, reason)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			refresh()

			if !heartbeatDue(lastHeartbeat, t, heartbeat) {
				continue
			}
			lastHeartbeat = t

			hbEvent := mqtt.SystemEvent{Timestamp: t, Event: mqtt.EventHeartbeat}
			if tracker != nil {
				snap := tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v timers=%d fired=%d", snap.Uptime().Truncate(time.Second), len(snap.Timers), snap.FiredTotal)
				hbEvent.RawPayload = status.FormatStatusEvent(snap, mqtt.EventHeartbeat, "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

func heartbeatDue(last, now time.Time, interval time.Duration) bool {
	return interval > 0 && now.Sub(last) >= interval
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// printStates writes one line per timer. Now-mode timers without a start
// time are shown at the start of their first cycle.
func printStates(w io.Writer, configs []logic.TimerConfig, settings store.Settings, now time.Time) error {
	if len(configs) == 0 {
		_, err := fmt.Fprintln(w, "no timers configured")
		return err
	}
	for _, cfg := range configs {
		st, err := logic.ComputeStateWeekStart(cfg, now, settings.WeekStart())
		var line string
		switch {
		case err != nil:
			line = fmt.Sprintf("%s: error: %v", cfg.Name, err)
		case !cfg.Enabled:
			line = fmt.Sprintf("%s: paused at %.1f%%", cfg.Name, st.Progress*100)
		default:
			line = fmt.Sprintf("%s: %.1f%% cycle %d, %s remaining", cfg.Name, st.Progress*100, st.CycleCount, logic.FormatTimeRemaining(st.Remaining))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "timely.yaml"
	}
	return filepath.Join(dir, "timely", "timely.yaml")
}
