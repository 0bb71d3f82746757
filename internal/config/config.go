// Package config handles application configuration and setup
package config

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg"
	"github.com/venelinpetrov/sreg/hal/mcpio"
	"github.com/venelinpetrov/sreg/hal/periphio"
	"github.com/venelinpetrov/sreg/hal/raspi"
	"github.com/venelinpetrov/sreg/internal/options"
	"github.com/venelinpetrov/sreg/sregtest"
)

// Output backend names.
const (
	BackendRaspi    = "raspi"
	BackendPeriph   = "periph"
	BackendMCP23017 = "mcp23017"
	BackendDry      = "dry"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// OpenBackend opens the digital output backend selected by the options.
// Backends holding host resources implement io.Closer, the caller closes
// them when done.
func OpenBackend(logger *log.Logger, opts options.Program) (sreg.Output, error) {
	switch opts.Backend {
	case BackendRaspi:
		out, err := raspi.Open(logger)
		if err != nil {
			return nil, fmt.Errorf("opening raspi backend: %w", err)
		}
		return out, nil

	case BackendPeriph:
		out, err := periphio.New(logger)
		if err != nil {
			return nil, fmt.Errorf("opening periph backend: %w", err)
		}
		return out, nil

	case BackendMCP23017:
		out, err := mcpio.Open(logger, opts.I2CBus, uint16(opts.I2CAddr))
		if err != nil {
			return nil, fmt.Errorf("opening mcp23017 backend: %w", err)
		}
		return out, nil

	case BackendDry:
		return sregtest.NewRecorder(), nil

	default:
		return nil, fmt.Errorf("unsupported backend '%s'", opts.Backend)
	}
}
