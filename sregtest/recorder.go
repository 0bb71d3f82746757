// Package sregtest provides a recording fake of the sreg.Output interface.
// It backs the library and tool tests and the dry-run backend of sregctl:
// writes are captured in order instead of reaching any hardware.
package sregtest

import (
	"fmt"

	"github.com/venelinpetrov/sreg"
)

// Compile-time check to ensure Recorder implements sreg.Output.
var _ sreg.Output = (*Recorder)(nil)

// Recorder implements sreg.Output by recording every digital output write.
// Driving a pin that was not configured as an output first is an error,
// which catches sequencing bugs in drivers under test.
type Recorder struct {
	configured map[sreg.Pin]bool
	levels     map[sreg.Pin]sreg.Level
	events     []sreg.Transition

	failErr   error
	failAfter int // successful calls remaining before failErr is returned
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		configured: map[sreg.Pin]bool{},
		levels:     map[sreg.Pin]sreg.Level{},
	}
}

// ConfigureOutput marks the pin as configured.
func (r *Recorder) ConfigureOutput(pin sreg.Pin) error {
	if err := r.injectedFailure(); err != nil {
		return err
	}
	r.configured[pin] = true
	return nil
}

// SetOutput records the write and tracks the pin's final level.
func (r *Recorder) SetOutput(pin sreg.Pin, level sreg.Level) error {
	if err := r.injectedFailure(); err != nil {
		return err
	}
	if !r.configured[pin] {
		return fmt.Errorf("pin %d not configured as output", pin)
	}

	r.events = append(r.events, sreg.Transition{Pin: pin, Level: level})
	r.levels[pin] = level
	return nil
}

// Events returns all recorded writes in order.
func (r *Recorder) Events() []sreg.Transition {
	return r.events
}

// Level returns the last level a pin was driven to and whether it was
// driven at all.
func (r *Recorder) Level(pin sreg.Pin) (sreg.Level, bool) {
	level, ok := r.levels[pin]
	return level, ok
}

// Configured reports whether the pin was configured as an output.
func (r *Recorder) Configured(pin sreg.Pin) bool {
	return r.configured[pin]
}

// Reset drops the recorded events. Pin configuration and levels remain.
func (r *Recorder) Reset() {
	r.events = nil
}

// FailWith makes every following output call return err. A nil err
// disarms the failure injection.
func (r *Recorder) FailWith(err error) {
	r.failErr = err
	r.failAfter = 0
}

// FailAfter lets the next n output calls succeed and fails all later
// ones with err.
func (r *Recorder) FailAfter(n int, err error) {
	r.failErr = err
	r.failAfter = n
}

func (r *Recorder) injectedFailure() error {
	if r.failErr == nil {
		return nil
	}
	if r.failAfter > 0 {
		r.failAfter--
		return nil
	}
	return r.failErr
}
