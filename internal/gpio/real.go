//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealBuzzer drives a buzzer on an output line of gpiochip0.
type RealBuzzer struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	off    *time.Timer
	closed bool
}

// NewRealBuzzer requests pin as an output, initially low.
func NewRealBuzzer(pin int) (*RealBuzzer, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}

	return &RealBuzzer{chip: chip, line: line}, nil
}

// Pulse drives the line high and schedules it low after d.
func (b *RealBuzzer) Pulse(d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("buzzer closed")
	}

	if err := b.line.SetValue(1); err != nil {
		return fmt.Errorf("set buzzer pin: %w", err)
	}
	if b.off != nil {
		b.off.Stop()
	}
	b.off = time.AfterFunc(d, b.silence)
	return nil
}

func (b *RealBuzzer) silence() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if err := b.line.SetValue(0); err != nil {
		log.Printf("gpio: clear buzzer pin: %v", err)
	}
}

// Close drives the line low, then returns it to an input with pull-down
// to match the Pi boot default before releasing it.
func (b *RealBuzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.off != nil {
		b.off.Stop()
	}

	var errs []error
	if err := b.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear buzzer pin: %w", err))
	}
	if err := b.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure buzzer pin: %w", err))
	}
	if err := b.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
	}
	if err := b.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
