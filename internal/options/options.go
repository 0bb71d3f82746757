// Package options contains the program options.
package options

// Wiring contains the chain wiring options.
type Wiring struct {
	Data      uint   // GPIO number of the serial data line (DS)
	Clock     uint   // GPIO number of the shift clock line (SHCP)
	Latch     uint   // GPIO number of the latch clock line (STCP)
	Registers int    // number of chained 8-bit registers
	Initial   string // initial register state, parsed with base detection
}

// Parameters contains backend and file path options.
type Parameters struct {
	Backend string // output backend name, empty for auto-detection
	I2CBus  string // I2C bus name for the mcp23017 backend
	I2CAddr uint   // I2C device address of the expander
	Script  string // command script file to run
	Trace   string // transition trace output file, - for stdout
}

// Flags contains behavior options.
type Flags struct {
	Verify bool // replay the recorded transitions and verify the pushed state
	Debug  bool // enable debug logging
	Quiet  bool // quiet mode
}

// Program options of the control tool.
type Program struct {
	Wiring
	Parameters
	Flags
}
