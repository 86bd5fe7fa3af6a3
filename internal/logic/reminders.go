package logic

import "time"

// DueReminders returns the ids of the enabled reminders of cfg whose target
// offset lies within ±tolerance of state.Elapsed, in list order.
//
// A state that does not belong to cfg (including the zero state) is a
// missing state and nothing is due. Reminders already triggered in the
// current cycle, according to LastTriggered, are skipped. The polling loop
// keeps its own per-cycle record on top of this.
func DueReminders(cfg TimerConfig, state TimerState, tolerance time.Duration) ([]string, error) {
	if state.ConfigID != cfg.ID || state.CurrentCycleStart.IsZero() {
		return nil, nil
	}
	if !state.IsActive {
		return nil, nil
	}

	length, err := cycleLength(cfg.Duration)
	if err != nil {
		return nil, err
	}

	var due []string
	for _, r := range cfg.Reminders {
		if !r.Enabled || !ValidPosition(r.Position) {
			continue
		}
		if !withinTolerance(state.Elapsed, TargetOffset(r, length), tolerance) {
			continue
		}
		if AlreadyFired(r, state, length) {
			continue
		}
		due = append(due, r.ID)
	}
	return due, nil
}

// ValidPosition reports whether p is a fraction of a cycle in [0, 1].
// NaN is not.
func ValidPosition(p float64) bool {
	return p >= 0 && p <= 1
}

// TargetOffset returns the offset of r from the start of a cycle of the given length.
func TargetOffset(r Reminder, length time.Duration) time.Duration {
	return time.Duration(r.Position * float64(length))
}

// AlreadyFired reports whether r.LastTriggered falls in the cycle that
// contains the instant described by state. It is best-effort: it only
// protects against re-firing after the loop's own record was lost.
func AlreadyFired(r Reminder, state TimerState, length time.Duration) bool {
	if r.LastTriggered == nil || length <= 0 {
		return false
	}
	last := floorDiv(r.LastTriggered.Sub(state.CurrentCycleStart), length)
	current := floorDiv(state.Elapsed, length)
	return last == current
}

func withinTolerance(elapsed, target, tolerance time.Duration) bool {
	diff := elapsed - target
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
