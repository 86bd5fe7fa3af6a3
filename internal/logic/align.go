package logic

import (
	"fmt"
	"time"
)

// AlignedStart returns the start of the calendar period of size unit that
// contains t, in t's location. Weeks begin on weekStart.
//
// Milliseconds has no calendar boundary and returns ErrInvalidUnit, as does
// any unrecognized unit.
func AlignedStart(t time.Time, unit TimeUnit, weekStart time.Weekday) (time.Time, error) {
	loc := t.Location()
	y, mo, d := t.Date()
	h, mi, s := t.Clock()

	switch unit {
	case Seconds:
		return time.Date(y, mo, d, h, mi, s, 0, loc), nil
	case Minutes:
		return time.Date(y, mo, d, h, mi, 0, 0, loc), nil
	case Hours:
		return time.Date(y, mo, d, h, 0, 0, 0, loc), nil
	case Days:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc), nil
	case Weeks:
		back := (int(t.Weekday()) - int(weekStart) + 7) % 7
		return time.Date(y, mo, d-back, 0, 0, 0, 0, loc), nil
	case Months:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc), nil
	case Years:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), nil
	default:
		return time.Time{}, fmt.Errorf("%w: cannot align to %q", ErrInvalidUnit, unit)
	}
}
