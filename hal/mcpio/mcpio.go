// Package mcpio implements the chain output interface on an MCP23017
// 16-bit port expander attached over I2C. Pins 0-7 map to port A, pins
// 8-15 to port B.
package mcpio

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// MCP23017 register addresses in the IOCON.BANK=0 layout. The port B
// register always follows its port A counterpart.
const (
	regIODIRA = 0x00 // direction, 1 = input
	regGPIOA  = 0x12 // port value, writes go to the output latch
)

// PinCount is the number of expander pins.
const PinCount = 16

// I2C address range selectable through the expander's A0-A2 pins.
const (
	addrFirst = 0x20
	addrLast  = 0x27
)

// Compile-time check to ensure Output implements sreg.Output.
var _ sreg.Output = (*Output)(nil)

// Output drives MCP23017 expander pins over I2C. Register values are
// shadowed so every pin update writes a single register.
type Output struct {
	logger *log.Logger
	bus    i2c.BusCloser // nil when the bus is managed by the caller
	dev    *i2c.Dev

	iodir [2]uint8 // direction shadow per port, 1 = input
	olat  [2]uint8 // output latch shadow per port
}

// Open opens the named I2C bus and prepares the expander at addr for use.
// An empty bus name selects the first available bus.
func Open(logger *log.Logger, busName string, addr uint16) (*Output, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing host drivers: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("opening i2c bus '%s': %w", busName, err)
	}

	out, err := New(logger, bus, addr)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	out.bus = bus
	return out, nil
}

// New prepares the expander at addr on an already opened bus. Both ports
// are reset to inputs, the power-on state.
func New(logger *log.Logger, bus i2c.Bus, addr uint16) (*Output, error) {
	if addr < addrFirst || addr > addrLast {
		return nil, fmt.Errorf("invalid expander address %#02x, valid range %#02x to %#02x",
			addr, addrFirst, addrLast)
	}

	o := &Output{
		logger: logger,
		dev:    &i2c.Dev{Bus: bus, Addr: addr},
		iodir:  [2]uint8{0xff, 0xff},
	}

	for port := uint8(0); port < 2; port++ {
		if err := o.writeRegister(regIODIRA+port, o.iodir[port]); err != nil {
			return nil, fmt.Errorf("resetting port directions: %w", err)
		}
	}

	logger.Debug("Expander ready", log.Hex("address", addr))
	return o, nil
}

// Close closes the underlying bus if Open created it.
func (o *Output) Close() error {
	if o.bus == nil {
		return nil
	}
	if err := o.bus.Close(); err != nil {
		return fmt.Errorf("closing i2c bus: %w", err)
	}
	return nil
}

// ConfigureOutput clears the pin's direction bit, making it an output.
func (o *Output) ConfigureOutput(pin sreg.Pin) error {
	port, bit, err := portForPin(pin)
	if err != nil {
		return err
	}

	o.iodir[port] &^= 1 << bit
	if err := o.writeRegister(regIODIRA+port, o.iodir[port]); err != nil {
		return fmt.Errorf("configuring pin %d as output: %w", pin, err)
	}
	return nil
}

// SetOutput updates the pin's bit in the output latch shadow and writes
// the port register.
func (o *Output) SetOutput(pin sreg.Pin, level sreg.Level) error {
	port, bit, err := portForPin(pin)
	if err != nil {
		return err
	}

	if level {
		o.olat[port] |= 1 << bit
	} else {
		o.olat[port] &^= 1 << bit
	}
	if err := o.writeRegister(regGPIOA+port, o.olat[port]); err != nil {
		return fmt.Errorf("driving pin %d: %w", pin, err)
	}
	return nil
}

// portForPin splits an expander pin into port index and bit position.
func portForPin(pin sreg.Pin) (uint8, uint8, error) {
	if pin >= PinCount {
		return 0, 0, fmt.Errorf("invalid expander pin %d, valid range 0 to %d", pin, PinCount-1)
	}
	return uint8(pin) / 8, uint8(pin) % 8, nil
}

func (o *Output) writeRegister(reg, value uint8) error {
	if err := o.dev.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("writing register %#02x: %w", reg, err)
	}
	return nil
}
