package logic

import (
	"fmt"
	"math"
	"time"
)

// Milliseconds per unit. Months and years are approximate, so cycles built
// from them drift against the calendar.
const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
	msPerWeek   = 7 * msPerDay
	msPerMonth  = 30.44 * msPerDay
	msPerYear   = 365.25 * msPerDay
)

// ToMilliseconds converts a duration to milliseconds.
// An unrecognized unit returns ErrInvalidUnit.
func ToMilliseconds(d Duration) (float64, error) {
	switch d.Unit {
	case Milliseconds:
		return d.Value, nil
	case Seconds:
		return d.Value * msPerSecond, nil
	case Minutes:
		return d.Value * msPerMinute, nil
	case Hours:
		return d.Value * msPerHour, nil
	case Days:
		return d.Value * msPerDay, nil
	case Weeks:
		return d.Value * msPerWeek, nil
	case Months:
		return d.Value * msPerMonth, nil
	case Years:
		return d.Value * msPerYear, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, d.Unit)
	}
}

// Milliseconds is shorthand for ToMilliseconds(d).
func (d Duration) Milliseconds() (float64, error) {
	return ToMilliseconds(d)
}

// Length returns the duration as a time.Duration, rounded to the nanosecond.
// A value that does not fit in a time.Duration returns ErrInvalidDuration.
func (d Duration) Length() (time.Duration, error) {
	ms, err := ToMilliseconds(d)
	if err != nil {
		return 0, err
	}
	ns := math.Round(ms * float64(time.Millisecond))
	// float64(math.MaxInt64) is 2^63, one past the largest Duration.
	if math.IsNaN(ns) || math.Abs(ns) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v %s out of range", ErrInvalidDuration, d.Value, d.Unit)
	}
	return time.Duration(ns), nil
}

// Validate reports whether d can be used as a cycle length.
func (d Duration) Validate() error {
	_, err := cycleLength(d)
	return err
}

// cycleLength returns the duration as a usable cycle length.
// A cycle must be strictly positive.
func cycleLength(d Duration) (time.Duration, error) {
	if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
		return 0, fmt.Errorf("%w: %v %s", ErrInvalidDuration, d.Value, d.Unit)
	}
	length, err := d.Length()
	if err != nil {
		return 0, err
	}
	if length <= 0 {
		return 0, fmt.Errorf("%w: %v %s", ErrInvalidDuration, d.Value, d.Unit)
	}
	return length, nil
}

// String renders the duration as "3.5 hours".
func (d Duration) String() string {
	return fmt.Sprintf("%g %s", d.Value, d.Unit)
}

// Valid reports whether u is one of the known units.
func (u TimeUnit) Valid() bool {
	switch u {
	case Milliseconds, Seconds, Minutes, Hours, Days, Weeks, Months, Years:
		return true
	}
	return false
}
