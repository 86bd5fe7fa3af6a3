// Package gpio drives the reminder buzzer with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Buzzer sounds an audible alert.
type Buzzer interface {
	// Pulse drives the buzzer for d and returns without waiting for the
	// pulse to end. A pulse during a running one extends it.
	Pulse(d time.Duration) error

	// Close silences the buzzer and releases the line.
	Close() error
}

// PinBuzzer is the default buzzer pin (BCM numbering).
const PinBuzzer = 18

// DefaultPulse is how long a reminder sounds.
const DefaultPulse = 300 * time.Millisecond
