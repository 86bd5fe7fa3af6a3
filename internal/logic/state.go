package logic

import (
	"fmt"
	"time"
)

// ComputeState derives the state of cfg at now, with weeks starting on Sunday.
func ComputeState(cfg TimerConfig, now time.Time) (TimerState, error) {
	return ComputeStateWeekStart(cfg, now, time.Sunday)
}

// ComputeStateWeekStart derives the state of cfg at now. The result depends
// only on the configuration and the wall clock, so a paused or missed tick
// never shifts the cycle.
//
// A disabled timer returns a frozen snapshot: no progress, full remaining
// time, cycle 0, started at now, inactive.
//
// When the base start lies in the future (a fixed start not reached yet),
// the cycle count is 0, the current cycle begins at the base start and
// Elapsed is negative until then.
func ComputeStateWeekStart(cfg TimerConfig, now time.Time, weekStart time.Weekday) (TimerState, error) {
	if !cfg.Enabled {
		length, err := cycleLength(cfg.Duration)
		if err != nil {
			err = fmt.Errorf("timer %s: %w", cfg.ID, err)
		}
		return TimerState{
			ConfigID:          cfg.ID,
			Remaining:         length,
			CurrentCycleStart: now,
		}, err
	}

	length, err := cycleLength(cfg.Duration)
	if err != nil {
		return TimerState{}, fmt.Errorf("timer %s: %w", cfg.ID, err)
	}

	base, err := BaseStart(cfg, now, weekStart)
	if err != nil {
		return TimerState{}, fmt.Errorf("timer %s: %w", cfg.ID, err)
	}

	cycles := floorDiv(now.Sub(base), length)
	if cycles < 0 {
		cycles = 0
	}
	start := base.Add(time.Duration(cycles) * length)
	elapsed := now.Sub(start)

	return TimerState{
		ConfigID:          cfg.ID,
		Progress:          clamp(float64(elapsed)/float64(length), 0, 1),
		Elapsed:           elapsed,
		Remaining:         length - elapsed,
		CycleCount:        cycles,
		CurrentCycleStart: start,
		IsActive:          true,
	}, nil
}

// BaseStart returns the epoch from which cycles of cfg are counted.
// Fixed and now modes use FixedStartTime, falling back to now. Aligned mode
// snaps now to the AlignTo boundary (hours when unset).
func BaseStart(cfg TimerConfig, now time.Time, weekStart time.Weekday) (time.Time, error) {
	switch cfg.StartMode {
	case StartAligned:
		unit := cfg.AlignTo
		if unit == "" {
			unit = Hours
		}
		return AlignedStart(now, unit, weekStart)
	default:
		if cfg.FixedStartTime != nil {
			return *cfg.FixedStartTime, nil
		}
		return now, nil
	}
}

// floorDiv divides rounding toward negative infinity. b must be positive.
func floorDiv(a, b time.Duration) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return int64(q)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
