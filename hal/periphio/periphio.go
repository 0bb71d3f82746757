// Package periphio implements the chain output interface on top of the
// periph.io host drivers. Pins are resolved by their GPIO number through
// the pin registry, which makes the backend portable across the hosts
// periph.io supports.
package periphio

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Compile-time check to ensure Output implements sreg.Output.
var _ sreg.Output = (*Output)(nil)

// Output drives host GPIO pins resolved through the periph.io registry.
type Output struct {
	logger *log.Logger
	pins   map[sreg.Pin]gpio.PinOut
}

// New loads the periph.io host drivers and returns an Output. Pins are
// resolved lazily when they are configured.
func New(logger *log.Logger) (*Output, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("initializing host drivers: %w", err)
	}

	logger.Debug("Host drivers loaded", log.Int("count", len(state.Loaded)))
	return &Output{
		logger: logger,
		pins:   map[sreg.Pin]gpio.PinOut{},
	}, nil
}

// ConfigureOutput resolves the pin by its GPIO number and configures it
// as an output by driving it low.
func (o *Output) ConfigureOutput(pin sreg.Pin) error {
	name := pinName(pin)
	p := gpioreg.ByName(name)
	if p == nil {
		return fmt.Errorf("unknown gpio pin %s", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("configuring pin %s as output: %w", name, err)
	}

	o.pins[pin] = p
	return nil
}

// SetOutput drives a pin previously configured by ConfigureOutput.
func (o *Output) SetOutput(pin sreg.Pin, level sreg.Level) error {
	p, ok := o.pins[pin]
	if !ok {
		return fmt.Errorf("pin %d not configured as output", pin)
	}
	if err := p.Out(gpio.Level(level)); err != nil {
		return fmt.Errorf("driving pin %s: %w", pinName(pin), err)
	}
	return nil
}

// pinName returns the registry name for a GPIO number.
func pinName(pin sreg.Pin) string {
	return fmt.Sprintf("GPIO%d", pin)
}
