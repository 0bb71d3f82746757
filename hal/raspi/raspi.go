// Package raspi implements the chain output interface on the Raspberry Pi,
// driving the BCM GPIO pins through the memory-mapped register block.
package raspi

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/stianeikeland/go-rpio/v4"
	"github.com/venelinpetrov/sreg"
)

// Compile-time check to ensure Output implements sreg.Output.
var _ sreg.Output = (*Output)(nil)

// Output drives Raspberry Pi GPIO pins. Pin numbers are BCM numbers.
type Output struct {
	logger *log.Logger
}

// Open maps the GPIO register block and returns an Output using it.
// Close releases the mapping again.
func Open(logger *log.Logger) (*Output, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("mapping gpio registers: %w", err)
	}

	logger.Debug("Raspberry Pi GPIO opened")
	return &Output{
		logger: logger,
	}, nil
}

// Close unmaps the GPIO register block.
func (o *Output) Close() error {
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("unmapping gpio registers: %w", err)
	}
	return nil
}

// ConfigureOutput switches the pin to output mode. Register access cannot
// fail once the GPIO block is mapped, the error is always nil.
func (o *Output) ConfigureOutput(pin sreg.Pin) error {
	rpio.Pin(pin).Output()
	return nil
}

// SetOutput drives the pin to the given level. Like ConfigureOutput it
// cannot fail after Open, the error is always nil.
func (o *Output) SetOutput(pin sreg.Pin, level sreg.Level) error {
	if level == sreg.High {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
	return nil
}
