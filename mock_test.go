package sreg

// mockOutput is a minimal recording Output for testing.
type mockOutput struct {
	configured []Pin
	events     []Transition

	failConfigure error // returned by every ConfigureOutput call when set
	failSet       error // returned by SetOutput once armed
	failSetAfter  int   // successful SetOutput calls before failSet is returned
}

func newMockOutput() *mockOutput {
	return &mockOutput{}
}

func (m *mockOutput) ConfigureOutput(pin Pin) error {
	if m.failConfigure != nil {
		return m.failConfigure
	}
	m.configured = append(m.configured, pin)
	return nil
}

func (m *mockOutput) SetOutput(pin Pin, level Level) error {
	if m.failSet != nil {
		if m.failSetAfter == 0 {
			return m.failSet
		}
		m.failSetAfter--
	}
	m.events = append(m.events, Transition{Pin: pin, Level: level})
	return nil
}

// reset drops the recorded events but keeps the pin configuration.
func (m *mockOutput) reset() {
	m.events = nil
}

// levelWrites returns the levels of all recorded writes to one pin.
func (m *mockOutput) levelWrites(pin Pin) []Level {
	var levels []Level
	for _, event := range m.events {
		if event.Pin == pin {
			levels = append(levels, event.Level)
		}
	}
	return levels
}
