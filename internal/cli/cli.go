// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/venelinpetrov/sreg"
	"github.com/venelinpetrov/sreg/internal/config"
	"github.com/venelinpetrov/sreg/internal/options"
)

// ParseFlags parses command line flags and returns program options, the
// chain configuration and the remaining arguments, which form an inline
// command sequence.
func ParseFlags() (options.Program, sreg.Config, []string, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Script == "" && !flagPassed(flags, "initial")) {
		return opts, sreg.Config{}, nil, &UsageError{flags: flags}
	}

	if err := normalizeOptions(flags, &opts); err != nil {
		return opts, sreg.Config{}, nil, err
	}

	cfg, err := chainConfig(flags, opts)
	if err != nil {
		return opts, sreg.Config{}, nil, err
	}

	return opts, cfg, args, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: sregctl [options] [command ...]\n\n")
	e.flags.PrintDefaults()
	fmt.Printf("\ncommands:\n")
	fmt.Printf("  set PIN      set a register output bit\n")
	fmt.Printf("  clear PIN    clear a register output bit\n")
	fmt.Printf("  toggle PIN   invert a register output bit\n")
	fmt.Printf("  get PIN      print a register output bit\n")
	fmt.Printf("  state        print the whole register state\n")
	fmt.Printf("  write VALUE  replace the register state and push it\n")
	fmt.Printf("  push         push the current state to hardware\n")
	fmt.Printf("  wait TIME    pause, for example 250ms or 1s\n\n")
	fmt.Printf("bit changes staged by set, clear and toggle are pushed once at the end\n\n")
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(flags *flag.FlagSet, opts *options.Program) error {
	opts.Backend = strings.ToLower(opts.Backend)
	if opts.Backend == "rpi" {
		opts.Backend = config.BackendRaspi
	}
	if opts.Backend == "" {
		return nil // auto-detected later
	}

	validBackends := []string{
		config.BackendRaspi, config.BackendPeriph, config.BackendMCP23017, config.BackendDry,
	}
	for _, valid := range validBackends {
		if opts.Backend == valid {
			return nil
		}
	}

	return &UsageError{
		flags: flags,
		msg: fmt.Sprintf("unsupported backend: %s. Valid options: %s",
			opts.Backend, strings.Join(validBackends, ", ")),
	}
}

// chainConfig converts and validates the wiring options.
func chainConfig(flags *flag.FlagSet, opts options.Program) (sreg.Config, error) {
	for _, pin := range []struct {
		name  string
		value uint
	}{
		{name: "data", value: opts.Data},
		{name: "clock", value: opts.Clock},
		{name: "latch", value: opts.Latch},
	} {
		if pin.value > math.MaxUint8 {
			return sreg.Config{}, &UsageError{
				flags: flags,
				msg:   fmt.Sprintf("%s pin %d out of range, pins are 0 to %d", pin.name, pin.value, math.MaxUint8),
			}
		}
	}
	if opts.Data == opts.Clock || opts.Data == opts.Latch || opts.Clock == opts.Latch {
		return sreg.Config{}, &UsageError{
			flags: flags,
			msg:   "data, clock and latch must use distinct pins",
		}
	}

	if opts.Registers < 1 || opts.Registers > sreg.MaxRegisters {
		return sreg.Config{}, &UsageError{
			flags: flags,
			msg:   fmt.Sprintf("register count %d out of range, valid range 1 to %d", opts.Registers, sreg.MaxRegisters),
		}
	}

	initial, err := strconv.ParseUint(opts.Initial, 0, 64)
	if err != nil {
		return sreg.Config{}, &UsageError{
			flags: flags,
			msg:   fmt.Sprintf("invalid initial value '%s'", opts.Initial),
		}
	}

	return sreg.Config{
		Data:      sreg.Pin(opts.Data),
		Clock:     sreg.Pin(opts.Clock),
		Latch:     sreg.Pin(opts.Latch),
		Registers: opts.Registers,
		Initial:   initial,
	}, nil
}

// flagPassed reports whether a flag was set explicitly on the command line.
func flagPassed(flags *flag.FlagSet, name string) bool {
	passed := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.UintVar(&opts.Data, "data", 2, "GPIO number of the serial data line (DS)")
	flags.UintVar(&opts.Clock, "clock", 3, "GPIO number of the shift clock line (SHCP)")
	flags.UintVar(&opts.Latch, "latch", 4, "GPIO number of the latch clock line (STCP)")
	flags.IntVar(&opts.Registers, "registers", 1, "number of chained 8-bit shift registers (1-8)")
	flags.StringVar(&opts.Initial, "initial", "0", "initial register state pushed at startup, decimal, 0x hex or 0b binary")
	flags.StringVar(&opts.Backend, "backend", "", "output backend (raspi/periph/mcp23017/dry) - if not auto-detected from the host")
	flags.StringVar(&opts.I2CBus, "bus", "", "I2C bus name for the mcp23017 backend, empty for the first available bus")
	flags.UintVar(&opts.I2CAddr, "addr", 0x20, "I2C address of the mcp23017 expander (0x20-0x27)")
	flags.StringVar(&opts.Script, "script", "", "name of a command script file to run")
	flags.StringVar(&opts.Trace, "trace", "", "name of the pin transition trace output file, - for console")
	flags.BoolVar(&opts.Verify, "verify", false, "verify the pushed state by replaying the recorded pin transitions")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
