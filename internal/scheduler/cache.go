package scheduler

import (
	"time"

	"github.com/sweeney/timely/internal/logic"
)

// cycleRecord holds the reminders fired during one cycle of one timer.
// A cycle is identified by its count and its start: aligned timers restart
// at every boundary with the count back at zero, so the start is needed to
// tell two periods apart.
type cycleRecord struct {
	cycle int64
	start time.Time
	fired map[string]time.Time // reminder id -> dispatch time
}

func (c *cycleRecord) matches(st logic.TimerState) bool {
	return c.cycle == st.CycleCount && c.start.Equal(st.CurrentCycleStart)
}

// firedCache is the per-process record of (timer, cycle, reminder) dispatches.
// Only the current cycle of each timer is kept. Not safe for concurrent use.
type firedCache map[string]*cycleRecord

func (c firedCache) has(configID string, st logic.TimerState, reminderID string) bool {
	rec, ok := c[configID]
	if !ok || !rec.matches(st) {
		return false
	}
	_, ok = rec.fired[reminderID]
	return ok
}

func (c firedCache) record(configID string, st logic.TimerState, reminderID string, at time.Time) {
	rec, ok := c[configID]
	if !ok || !rec.matches(st) {
		rec = &cycleRecord{
			cycle: st.CycleCount,
			start: st.CurrentCycleStart,
			fired: make(map[string]time.Time),
		}
		c[configID] = rec
	}
	rec.fired[reminderID] = at
}

// retain drops records for timers that no longer exist or whose cycle has moved on.
func (c firedCache) retain(states map[string]logic.TimerState) {
	for id, rec := range c {
		st, ok := states[id]
		if !ok || !rec.matches(st) {
			delete(c, id)
		}
	}
}

func (c firedCache) len() int {
	n := 0
	for _, rec := range c {
		n += len(rec.fired)
	}
	return n
}
