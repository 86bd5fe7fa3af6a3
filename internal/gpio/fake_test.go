package gpio

import (
	"errors"
	"testing"
	"time"
)

var _ Buzzer = (*FakeBuzzer)(nil)
var _ Buzzer = (*RealBuzzer)(nil)

func TestFakeBuzzerPulse(t *testing.T) {
	f := NewFakeBuzzer()

	if err := f.Pulse(DefaultPulse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Pulse(time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Count() != 2 {
		t.Fatalf("expected 2 pulses, got %d", f.Count())
	}
	if f.Pulses[0] != DefaultPulse || f.Pulses[1] != time.Second {
		t.Errorf("unexpected pulses: %v", f.Pulses)
	}
}

func TestFakeBuzzerError(t *testing.T) {
	f := NewFakeBuzzer()
	f.PulseError = errors.New("simulated error")

	err := f.Pulse(DefaultPulse)
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if f.Count() != 0 {
		t.Error("failed pulse should not be recorded")
	}
}

func TestFakeBuzzerClose(t *testing.T) {
	f := NewFakeBuzzer()
	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeBuzzerReset(t *testing.T) {
	f := NewFakeBuzzer()
	f.Pulse(DefaultPulse)
	f.Close()
	f.PulseError = errors.New("x")

	f.Reset()

	if f.Count() != 0 || f.Closed || f.PulseError != nil {
		t.Errorf("reset incomplete: %+v", f)
	}
}
