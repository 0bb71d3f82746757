// Package trace records and renders digital output transitions.
package trace

import (
	"fmt"
	"io"

	"github.com/venelinpetrov/sreg"
)

var _ sreg.Output = (*Tracer)(nil)

// Tracer wraps an output and records every successful write that passes
// through it, leaving the wrapped output's behavior unchanged.
type Tracer struct {
	out    sreg.Output
	events []sreg.Transition
}

// New creates a tracer forwarding to the given output.
func New(out sreg.Output) *Tracer {
	return &Tracer{out: out}
}

// ConfigureOutput forwards the pin configuration to the wrapped output.
func (t *Tracer) ConfigureOutput(pin sreg.Pin) error {
	return t.out.ConfigureOutput(pin)
}

// SetOutput forwards the write to the wrapped output and records it when
// it succeeds. Failed writes never reached the hardware and are not part
// of the trace.
func (t *Tracer) SetOutput(pin sreg.Pin, level sreg.Level) error {
	if err := t.out.SetOutput(pin, level); err != nil {
		return err
	}
	t.events = append(t.events, sreg.Transition{Pin: pin, Level: level})
	return nil
}

// Events returns the recorded transitions in write order.
func (t *Tracer) Events() []sreg.Transition {
	return t.events
}

// Reset drops the recorded transitions.
func (t *Tracer) Reset() {
	t.events = nil
}

// Labels maps the configured control pins to their line names for trace
// rendering.
func Labels(cfg sreg.Config) map[sreg.Pin]string {
	return map[sreg.Pin]string{
		cfg.Data:  "data",
		cfg.Clock: "clock",
		cfg.Latch: "latch",
	}
}

// Write renders transitions as a numbered listing, one write per line.
// Pins found in labels are printed by their line name, others by number.
func Write(writer io.Writer, labels map[sreg.Pin]string, transitions []sreg.Transition) error {
	for i, transition := range transitions {
		label, ok := labels[transition.Pin]
		if !ok {
			label = fmt.Sprintf("pin %d", transition.Pin)
		}

		if _, err := fmt.Fprintf(writer, "%4d  %-5s %s\n", i+1, label, transition.Level); err != nil {
			return fmt.Errorf("writing transition %d: %w", i+1, err)
		}
	}
	return nil
}
