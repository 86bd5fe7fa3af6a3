// Package logic contains the pure time-cycle engine for repeating timers.
// This package has NO external dependencies (no MQTT, GPIO, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"time"
)

var (
	// ErrInvalidUnit is returned for an unrecognized duration or alignment unit.
	ErrInvalidUnit = errors.New("invalid time unit")

	// ErrInvalidDuration is returned when a cycle length is zero, negative or not finite.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrMissingState reports that no state was computed for a config.
	// Due-detection treats it as "not due".
	ErrMissingState = errors.New("missing timer state")
)

// TimeUnit is the unit of a Duration or an alignment boundary.
type TimeUnit string

const (
	Milliseconds TimeUnit = "milliseconds"
	Seconds      TimeUnit = "seconds"
	Minutes      TimeUnit = "minutes"
	Hours        TimeUnit = "hours"
	Days         TimeUnit = "days"
	Weeks        TimeUnit = "weeks"
	Months       TimeUnit = "months"
	Years        TimeUnit = "years"
)

// StartMode controls where a timer's first cycle begins.
type StartMode string

const (
	StartNow     StartMode = "now"
	StartFixed   StartMode = "fixed"
	StartAligned StartMode = "aligned"
)

// Duration is a semantic length such as {3.5, hours}.
type Duration struct {
	Value float64  `yaml:"value" json:"value"`
	Unit  TimeUnit `yaml:"unit" json:"unit"`
}

// Marker is a display-only position within a cycle.
type Marker struct {
	ID        string  `yaml:"id" json:"id"`
	Position  float64 `yaml:"position" json:"position"`
	Label     string  `yaml:"label,omitempty" json:"label,omitempty"`
	Color     string  `yaml:"color,omitempty" json:"color,omitempty"`
	ShowLabel bool    `yaml:"show_label,omitempty" json:"show_label,omitempty"`
}

// Reminder fires once per cycle when the clock reaches Position.
type Reminder struct {
	ID       string  `yaml:"id" json:"id"`
	Position float64 `yaml:"position" json:"position"` // fraction of one cycle, 0-1
	Message  string  `yaml:"message" json:"message"`
	Sound    bool    `yaml:"sound" json:"sound"`
	Vibrate  bool    `yaml:"vibrate" json:"vibrate"`
	Enabled  bool    `yaml:"enabled" json:"enabled"`

	// LastTriggered is written back by the polling loop when the reminder fires.
	LastTriggered *time.Time `yaml:"last_triggered,omitempty" json:"last_triggered,omitempty"`
}

// TimerConfig is the declarative definition of a repeating timer.
type TimerConfig struct {
	ID             string     `yaml:"id" json:"id"`
	Name           string     `yaml:"name" json:"name"`
	Duration       Duration   `yaml:"duration" json:"duration"`
	StartMode      StartMode  `yaml:"start_mode" json:"start_mode"`
	FixedStartTime *time.Time `yaml:"fixed_start_time,omitempty" json:"fixed_start_time,omitempty"`
	AlignTo        TimeUnit   `yaml:"align_to,omitempty" json:"align_to,omitempty"` // aligned mode only; empty = hours
	Enabled        bool       `yaml:"enabled" json:"enabled"`
	Reminders      []Reminder `yaml:"reminders" json:"reminders"`
	Markers        []Marker   `yaml:"markers" json:"markers"`
	Order          int        `yaml:"order" json:"order"`
}

// TimerState is the derived position of a timer at one instant.
// It is recomputed from scratch on every call and never stored.
type TimerState struct {
	ConfigID          string
	Progress          float64 // 0-1
	Elapsed           time.Duration
	Remaining         time.Duration
	CycleCount        int64
	CurrentCycleStart time.Time
	IsActive          bool
}
