package trace

import (
	"errors"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/venelinpetrov/sreg"
	"github.com/venelinpetrov/sreg/sregtest"
)

func TestTracerForwardsAndRecords(t *testing.T) {
	recorder := sregtest.NewRecorder()
	tracer := New(recorder)

	assert.NoError(t, tracer.ConfigureOutput(2))
	assert.NoError(t, tracer.SetOutput(2, sreg.High))
	assert.NoError(t, tracer.SetOutput(2, sreg.Low))

	want := []sreg.Transition{
		{Pin: 2, Level: sreg.High},
		{Pin: 2, Level: sreg.Low},
	}
	assert.Len(t, tracer.Events(), len(want))
	for i := range want {
		assert.Equal(t, want[i], tracer.Events()[i])
	}

	// the wrapped output saw the same writes
	assert.Len(t, recorder.Events(), len(want))
	level, ok := recorder.Level(2)
	assert.True(t, ok)
	assert.Equal(t, sreg.Low, level)
}

func TestTracerSkipsFailedWrites(t *testing.T) {
	recorder := sregtest.NewRecorder()
	tracer := New(recorder)

	assert.NoError(t, tracer.ConfigureOutput(2))

	injected := errors.New("bus stuck")
	recorder.FailWith(injected)
	assert.True(t, errors.Is(tracer.SetOutput(2, sreg.High), injected))
	assert.Len(t, tracer.Events(), 0)
}

func TestTracerReset(t *testing.T) {
	recorder := sregtest.NewRecorder()
	tracer := New(recorder)

	assert.NoError(t, tracer.ConfigureOutput(2))
	assert.NoError(t, tracer.SetOutput(2, sreg.High))
	tracer.Reset()

	assert.Len(t, tracer.Events(), 0)
}

func TestWrite(t *testing.T) {
	labels := Labels(sreg.Config{Data: 2, Clock: 3, Latch: 4})
	transitions := []sreg.Transition{
		{Pin: 4, Level: sreg.Low},
		{Pin: 2, Level: sreg.High},
		{Pin: 3, Level: sreg.Low},
		{Pin: 9, Level: sreg.High},
	}

	var buf strings.Builder
	assert.NoError(t, Write(&buf, labels, transitions))

	want := "   1  latch low\n" +
		"   2  data  high\n" +
		"   3  clock low\n" +
		"   4  pin 9 high\n"
	assert.Equal(t, want, buf.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteError(t *testing.T) {
	transitions := []sreg.Transition{{Pin: 2, Level: sreg.High}}

	err := Write(failWriter{}, nil, transitions)
	assert.ErrorContains(t, err, "writing transition 1")
}
