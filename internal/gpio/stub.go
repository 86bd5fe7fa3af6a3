//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// RealBuzzer is not available on non-Linux platforms.
type RealBuzzer struct{}

// NewRealBuzzer returns an error on non-Linux platforms.
func NewRealBuzzer(pin int) (*RealBuzzer, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Pulse is not implemented on non-Linux platforms.
func (b *RealBuzzer) Pulse(time.Duration) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBuzzer) Close() error {
	return nil
}
