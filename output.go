package sreg

// Pin identifies a digital output of the host platform, such as a GPIO
// number or an expander pin index. How the value maps onto hardware is up
// to the Output implementation.
type Pin uint8

// Level is the state of a digital output line.
type Level bool

// Digital output levels.
const (
	Low  Level = false
	High Level = true
)

// String implements fmt.Stringer.
func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Transition records a single digital output write: the pin and the level
// it was driven to. Recording Output implementations expose the writes
// they observed as an ordered transition list.
type Transition struct {
	Pin   Pin
	Level Level
}

// Output is the digital output layer a chain drives its control lines
// through. Implementations wrap a concrete platform, for example
// memory-mapped GPIO, a port expander or a recording fake.
//
// Both calls are synchronous: when they return, the pin holds the
// requested state. SetOutput is only issued for pins that were configured
// before.
type Output interface {
	// ConfigureOutput configures the pin as a digital output.
	ConfigureOutput(pin Pin) error

	// SetOutput drives a previously configured pin to the given level.
	SetOutput(pin Pin, level Level) error
}
