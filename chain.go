// Package sreg drives daisy-chains of 74HC595 serial-in/parallel-out shift
// registers over three bit-banged digital output lines: serial data, shift
// clock and latch clock. A Chain mirrors the chain's output state in memory
// and synchronizes the mirror to hardware with a clocked shift-then-latch
// sequence. The protocol is write-only, the mirror is the single source of
// truth for what was sent.
package sreg

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// MaxRegisters is the longest supported chain. The state mirror is a
// uint64, which holds the outputs of eight chained 8-bit registers.
const MaxRegisters = 8

// Chain construction and bit addressing errors.
var (
	ErrNoOutput      = errors.New("no output set")
	ErrRegisterCount = errors.New("invalid register count")
	ErrSharedPin     = errors.New("control pins must be distinct")
	ErrPinRange      = errors.New("pin out of range")
)

// Config describes the wiring of a register chain. It is set once at
// construction and immutable afterwards.
type Config struct {
	Data  Pin // serial data input of the first register (DS)
	Clock Pin // shift clock shared by all registers (SHCP)
	Latch Pin // latch clock shared by all registers (STCP)

	// Registers is the number of chained 8-bit registers, 1 to MaxRegisters.
	Registers int

	// Initial is the register state pushed to hardware at construction.
	Initial uint64
}

// Chain drives a daisy-chain of 74HC595 shift registers. Bit index 0 of the
// mirrored state is output pin 0 of the first register in the chain, bit
// indices map 1:1 to physical output pins across the chain.
//
// A Chain is not safe for concurrent use, callers serialize access.
type Chain struct {
	logger *log.Logger
	out    Output
	cfg    Config

	state uint64 // mirror of the chain's output register
}

// New creates a chain for the given wiring, configures the three control
// pins as digital outputs and pushes cfg.Initial to hardware.
func New(logger *log.Logger, out Output, cfg Config) (*Chain, error) {
	if out == nil {
		return nil, ErrNoOutput
	}
	if cfg.Registers < 1 || cfg.Registers > MaxRegisters {
		return nil, fmt.Errorf("%w: %d, valid range 1 to %d",
			ErrRegisterCount, cfg.Registers, MaxRegisters)
	}
	if cfg.Data == cfg.Clock || cfg.Data == cfg.Latch || cfg.Clock == cfg.Latch {
		return nil, fmt.Errorf("%w: data %d, clock %d, latch %d",
			ErrSharedPin, cfg.Data, cfg.Clock, cfg.Latch)
	}

	for _, pin := range []Pin{cfg.Data, cfg.Clock, cfg.Latch} {
		if err := out.ConfigureOutput(pin); err != nil {
			return nil, fmt.Errorf("configuring pin %d as output: %w", pin, err)
		}
	}

	c := &Chain{
		logger: logger,
		out:    out,
		cfg:    cfg,
	}

	logger.Debug("Chain configured",
		log.Uint8("data", uint8(cfg.Data)),
		log.Uint8("clock", uint8(cfg.Clock)),
		log.Uint8("latch", uint8(cfg.Latch)),
		log.Int("registers", cfg.Registers))

	if err := c.WriteBits(cfg.Initial); err != nil {
		return nil, fmt.Errorf("pushing initial state: %w", err)
	}
	return c, nil
}

// Registers returns the number of chained 8-bit registers.
func (c *Chain) Registers() int {
	return c.cfg.Registers
}

// Bits returns the chain's total output width in bits.
func (c *Chain) Bits() int {
	return c.cfg.Registers * 8
}

// TestBit returns the mirrored level of the given output pin. It does not
// touch the hardware.
func (c *Chain) TestBit(pin int) (Level, error) {
	if err := c.checkPin(pin); err != nil {
		return Low, err
	}
	return Level(c.state>>uint(pin)&1 == 1), nil
}

// TestAllBits returns the whole mirrored register state.
func (c *Chain) TestAllBits() uint64 {
	return c.state
}

// WriteBit sets the mirrored bit for an output pin. It does not touch the
// hardware, callers that want the physical pins to change call Push or
// WriteBits afterwards.
func (c *Chain) WriteBit(pin int, level Level) error {
	if err := c.checkPin(pin); err != nil {
		return err
	}
	if level {
		c.state |= 1 << uint(pin)
	} else {
		c.state &^= 1 << uint(pin)
	}
	return nil
}

// InvertBit negates the mirrored bit for an output pin. Applying it twice
// restores the original value. Memory only, like WriteBit.
func (c *Chain) InvertBit(pin int) error {
	level, err := c.TestBit(pin)
	if err != nil {
		return err
	}
	return c.WriteBit(pin, !level)
}

// WriteBits replaces the whole mirror with value and pushes it to
// hardware. Bits at or above Bits() are retained in the mirror and
// returned by TestAllBits but never shifted out.
func (c *Chain) WriteBits(value uint64) error {
	c.state = value
	return c.Push()
}

// Push synchronizes the hardware outputs with the current mirror by
// running the full latch-low then shift-and-latch-high sequence.
func (c *Chain) Push() error {
	if err := c.LatchLow(); err != nil {
		return err
	}
	return c.LatchHigh()
}

// LatchLow opens the shift window: the latch clock, data and shift clock
// lines are driven low, in that order. The chain accepts a new serial
// sequence afterwards, no bits are transferred yet.
func (c *Chain) LatchLow() error {
	if err := c.out.SetOutput(c.cfg.Latch, Low); err != nil {
		return fmt.Errorf("driving latch low: %w", err)
	}
	if err := c.out.SetOutput(c.cfg.Data, Low); err != nil {
		return fmt.Errorf("driving data low: %w", err)
	}
	if err := c.out.SetOutput(c.cfg.Clock, Low); err != nil {
		return fmt.Errorf("driving clock low: %w", err)
	}
	return nil
}

// LatchHigh shifts the mirror out most-significant-bit first and raises
// the latch clock once at the end, committing the shifted bits to the
// output pins of all chained registers at the same time.
//
// Each bit takes four writes: shift clock low (nothing is transferred on
// the falling edge), data to the bit's level, shift clock high (the chain
// samples data on the rising edge), data back low so the line's residual
// level cannot bleed into the next bit.
func (c *Chain) LatchHigh() error {
	for i := c.Bits() - 1; i >= 0; i-- {
		bit := Level(c.state>>uint(i)&1 == 1)

		if err := c.out.SetOutput(c.cfg.Clock, Low); err != nil {
			return fmt.Errorf("driving clock low for bit %d: %w", i, err)
		}
		if err := c.out.SetOutput(c.cfg.Data, bit); err != nil {
			return fmt.Errorf("driving data for bit %d: %w", i, err)
		}
		if err := c.out.SetOutput(c.cfg.Clock, High); err != nil {
			return fmt.Errorf("driving clock high for bit %d: %w", i, err)
		}
		if err := c.out.SetOutput(c.cfg.Data, Low); err != nil {
			return fmt.Errorf("clearing data after bit %d: %w", i, err)
		}
	}

	if err := c.out.SetOutput(c.cfg.Latch, High); err != nil {
		return fmt.Errorf("driving latch high: %w", err)
	}

	c.logger.Debug("Pushed register state",
		log.Hex("state", c.state),
		log.Int("bits", c.Bits()))
	return nil
}

func (c *Chain) checkPin(pin int) error {
	if pin < 0 || pin >= c.Bits() {
		return fmt.Errorf("%w: pin %d, valid range 0 to %d", ErrPinRange, pin, c.Bits()-1)
	}
	return nil
}
