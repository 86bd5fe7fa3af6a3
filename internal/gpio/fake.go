package gpio

import (
	"sync"
	"time"
)

// FakeBuzzer records pulses for test assertions.
type FakeBuzzer struct {
	mu sync.Mutex

	// Pulses contains the duration of every Pulse call that succeeded.
	Pulses []time.Duration

	// PulseError, if set, will be returned by Pulse.
	PulseError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeBuzzer creates a FakeBuzzer.
func NewFakeBuzzer() *FakeBuzzer {
	return &FakeBuzzer{}
}

// Pulse records d.
func (f *FakeBuzzer) Pulse(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PulseError != nil {
		return f.PulseError
	}
	f.Pulses = append(f.Pulses, d)
	return nil
}

// Count returns how many pulses were recorded.
func (f *FakeBuzzer) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Pulses)
}

// Close marks the buzzer as closed.
func (f *FakeBuzzer) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset clears recorded pulses.
func (f *FakeBuzzer) Reset() {
	f.mu.Lock()
	f.Pulses = nil
	f.PulseError = nil
	f.Closed = false
	f.mu.Unlock()
}
