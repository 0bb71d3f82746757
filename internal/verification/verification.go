// Package verification checks recorded output transitions against the
// shift-then-latch protocol of the register chain.
package verification

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg"
)

// VerifyPush replays recorded output transitions through a simulated
// receiving register chain: a low latch opens the shift window, every
// rising clock edge samples the data line, a rising latch edge commits the
// sampled bits to the output register. It errors when the stream violates
// the protocol or when the last committed state does not match want.
// Mirror bits at or above the chain width are never shifted out and are
// masked off before the comparison.
func VerifyPush(logger *log.Logger, cfg sreg.Config, transitions []sreg.Transition, want uint64) error {
	r := &replay{
		cfg:  cfg,
		bits: cfg.Registers * 8,
	}

	for i, transition := range transitions {
		if err := r.apply(transition); err != nil {
			return fmt.Errorf("transition %d: %w", i+1, err)
		}
	}

	if r.commits == 0 {
		return errors.New("no state was committed")
	}
	if r.windowOpen {
		return errors.New("shift window left open")
	}

	mask := ^uint64(0) >> (64 - uint(r.bits))
	if r.committed != want&mask {
		return fmt.Errorf("committed state mismatch, expected %#x but got %#x",
			want&mask, r.committed)
	}

	logger.Debug("Push stream verified",
		log.Int("transitions", len(transitions)),
		log.Int("commits", r.commits),
		log.Hex("state", r.committed))
	return nil
}

// replay simulates a register chain receiving the driver's writes.
type replay struct {
	cfg  sreg.Config
	bits int

	data  sreg.Level
	clock sreg.Level

	windowOpen  bool
	dataCleared bool // data driven low since the last sample
	sampled     uint64
	samples     int

	committed uint64
	commits   int
}

func (r *replay) apply(transition sreg.Transition) error {
	switch transition.Pin {
	case r.cfg.Latch:
		return r.applyLatch(transition.Level)
	case r.cfg.Clock:
		return r.applyClock(transition.Level)
	case r.cfg.Data:
		r.applyData(transition.Level)
		return nil
	default:
		return fmt.Errorf("write to pin %d outside the chain wiring", transition.Pin)
	}
}

func (r *replay) applyLatch(level sreg.Level) error {
	if level == sreg.Low {
		if r.windowOpen {
			return errors.New("latch driven low during the shift window")
		}
		r.windowOpen = true
		r.samples = 0
		r.sampled = 0
		return nil
	}

	if !r.windowOpen {
		return errors.New("latch commit without an open shift window")
	}
	if r.samples != r.bits {
		return fmt.Errorf("latch commit after %d clock edges, expected %d", r.samples, r.bits)
	}
	if r.data == sreg.High {
		return errors.New("data line left high at commit")
	}

	r.windowOpen = false
	r.committed = r.sampled
	r.commits++
	return nil
}

func (r *replay) applyClock(level sreg.Level) error {
	rising := level == sreg.High && r.clock == sreg.Low
	r.clock = level
	if !rising {
		return nil
	}

	if !r.windowOpen {
		return errors.New("clock edge outside the shift window")
	}
	if r.samples == r.bits {
		return errors.New("more clock edges than chain bits")
	}
	if r.samples > 0 && !r.dataCleared {
		return errors.New("data not cleared since the previous bit")
	}

	r.sampled <<= 1
	if r.data == sreg.High {
		r.sampled |= 1
	}
	r.samples++
	r.dataCleared = false
	return nil
}

func (r *replay) applyData(level sreg.Level) {
	r.data = level
	if level == sreg.Low {
		r.dataCleared = true
	}
}
