package logic

import (
	"errors"
	"testing"
	"time"
)

func TestAlignedStartUnits(t *testing.T) {
	// Wednesday
	ts := time.Date(2026, 3, 18, 10, 42, 17, 345_000_000, time.UTC)

	cases := []struct {
		unit TimeUnit
		want time.Time
	}{
		{Seconds, time.Date(2026, 3, 18, 10, 42, 17, 0, time.UTC)},
		{Minutes, time.Date(2026, 3, 18, 10, 42, 0, 0, time.UTC)},
		{Hours, time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)},
		{Days, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)},
		{Weeks, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{Months, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Years, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := AlignedStart(ts, c.unit, time.Sunday)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.unit, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("%s: got %v, want %v", c.unit, got, c.want)
		}
	}
}

func TestAlignedStartWeekStart(t *testing.T) {
	wed := time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

	monday, _ := AlignedStart(wed, Weeks, time.Monday)
	if want := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC); !monday.Equal(want) {
		t.Errorf("monday start: got %v, want %v", monday, want)
	}

	saturday, _ := AlignedStart(wed, Weeks, time.Saturday)
	if want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC); !saturday.Equal(want) {
		t.Errorf("saturday start: got %v, want %v", saturday, want)
	}

	// On the start day itself the week begins that midnight.
	sun := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	got, _ := AlignedStart(sun, Weeks, time.Sunday)
	if want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("sunday on sunday: got %v, want %v", got, want)
	}

	// Crossing a month boundary.
	thu := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	got, _ = AlignedStart(thu, Weeks, time.Sunday)
	if want := time.Date(2026, 9, 27, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("month crossing: got %v, want %v", got, want)
	}
}

func TestAlignedStartUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	// 22:30 UTC is 03:30 the next day at UTC+5.
	ts := time.Date(2026, 6, 1, 22, 30, 0, 0, time.UTC).In(loc)

	got, err := AlignedStart(ts, Days, time.Sunday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, 6, 2, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAlignedStartInvalidUnits(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, u := range []TimeUnit{Milliseconds, "", "eons"} {
		if _, err := AlignedStart(ts, u, time.Sunday); !errors.Is(err, ErrInvalidUnit) {
			t.Errorf("%q: expected ErrInvalidUnit, got %v", u, err)
		}
	}
}

func TestAlignedStartNotAfterAndIdempotent(t *testing.T) {
	units := []TimeUnit{Seconds, Minutes, Hours, Days, Weeks, Months, Years}
	base := time.Date(2025, 12, 31, 23, 59, 59, 999_000_000, time.UTC)

	for i := 0; i < 200; i++ {
		ts := base.Add(time.Duration(i) * 7919 * time.Minute)
		for _, u := range units {
			for _, ws := range []time.Weekday{time.Sunday, time.Monday, time.Saturday} {
				a, err := AlignedStart(ts, u, ws)
				if err != nil {
					t.Fatalf("%s: unexpected error: %v", u, err)
				}
				if a.After(ts) {
					t.Fatalf("%s at %v: aligned start %v is after timestamp", u, ts, a)
				}
				b, _ := AlignedStart(a, u, ws)
				if !b.Equal(a) {
					t.Fatalf("%s at %v: not idempotent (%v then %v)", u, ts, a, b)
				}
			}
		}
	}
}
