// Package script handles parsing and running chain command sequences.
package script

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg"
)

// Op identifies a chain command operation.
type Op string

// Supported chain command operations.
const (
	OpSet    Op = "set"    // set PIN: stage an output pin high
	OpClear  Op = "clear"  // clear PIN: stage an output pin low
	OpToggle Op = "toggle" // toggle PIN: stage an output pin inversion
	OpGet    Op = "get"    // get PIN: print the mirrored pin level
	OpState  Op = "state"  // state: print the whole mirrored register state
	OpWrite  Op = "write"  // write VALUE: replace the state and push it
	OpPush   Op = "push"   // push: sync staged changes to hardware
	OpWait   Op = "wait"   // wait DURATION: pause between commands
)

// Command is one parsed chain command.
type Command struct {
	Op    Op
	Pin   int           // set, clear, toggle, get
	Value uint64        // write
	Wait  time.Duration // wait
}

// Load reads commands from a script file.
func Load(path string) ([]Command, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening script %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	commands, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing script %s: %w", path, err)
	}
	return commands, nil
}

// Parse reads commands from a script, one command per line. A # starts a
// comment that runs to the end of the line, blank lines are skipped.
func Parse(reader io.Reader) ([]Command, error) {
	var commands []Command

	scanner := bufio.NewScanner(reader)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if idx := strings.IndexByte(text, '#'); idx >= 0 {
			text = text[:idx]
		}

		tokens := strings.Fields(text)
		if len(tokens) == 0 {
			continue
		}

		command, rest, err := parseCommand(tokens)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rest) > 0 {
			return nil, fmt.Errorf("line %d: unexpected '%s' after %s command",
				line, rest[0], command.Op)
		}
		commands = append(commands, command)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return commands, nil
}

// ParseArgs parses commands from command line arguments, consuming command
// names and their arguments from the flat token list.
func ParseArgs(args []string) ([]Command, error) {
	var commands []Command

	for len(args) > 0 {
		command, rest, err := parseCommand(args)
		if err != nil {
			return nil, err
		}
		commands = append(commands, command)
		args = rest
	}
	return commands, nil
}

// parseCommand parses one command from the head of the token list and
// returns the tokens it did not consume.
func parseCommand(tokens []string) (Command, []string, error) {
	op := Op(strings.ToLower(tokens[0]))

	switch op {
	case OpSet, OpClear, OpToggle, OpGet:
		if len(tokens) < 2 {
			return Command{}, nil, fmt.Errorf("%s: missing pin argument", op)
		}
		pin, err := strconv.Atoi(tokens[1])
		if err != nil {
			return Command{}, nil, fmt.Errorf("%s: invalid pin '%s'", op, tokens[1])
		}
		return Command{Op: op, Pin: pin}, tokens[2:], nil

	case OpWrite:
		if len(tokens) < 2 {
			return Command{}, nil, fmt.Errorf("%s: missing value argument", op)
		}
		value, err := strconv.ParseUint(tokens[1], 0, 64)
		if err != nil {
			return Command{}, nil, fmt.Errorf("%s: invalid value '%s'", op, tokens[1])
		}
		return Command{Op: op, Value: value}, tokens[2:], nil

	case OpWait:
		if len(tokens) < 2 {
			return Command{}, nil, fmt.Errorf("%s: missing duration argument", op)
		}
		duration, err := time.ParseDuration(tokens[1])
		if err != nil {
			return Command{}, nil, fmt.Errorf("%s: invalid duration '%s'", op, tokens[1])
		}
		if duration < 0 {
			return Command{}, nil, fmt.Errorf("%s: negative duration '%s'", op, tokens[1])
		}
		return Command{Op: op, Wait: duration}, tokens[2:], nil

	case OpState, OpPush:
		return Command{Op: op}, tokens[1:], nil

	default:
		return Command{}, nil, fmt.Errorf("unknown command '%s'", tokens[0])
	}
}

// Run applies commands to the chain in order. set, clear and toggle stage
// bits in the chain's memory mirror; when staged changes remain
// unsynchronized after the last command, one final push sends them to
// hardware. write and push synchronize immediately, so scripts control
// intermediate syncs explicitly.
func Run(ctx context.Context, logger *log.Logger, chain *sreg.Chain, commands []Command) error {
	staged := false

	for _, command := range commands {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch command.Op {
		case OpSet:
			if err := chain.WriteBit(command.Pin, sreg.High); err != nil {
				return fmt.Errorf("set: %w", err)
			}
			staged = true

		case OpClear:
			if err := chain.WriteBit(command.Pin, sreg.Low); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			staged = true

		case OpToggle:
			if err := chain.InvertBit(command.Pin); err != nil {
				return fmt.Errorf("toggle: %w", err)
			}
			staged = true

		case OpGet:
			level, err := chain.TestBit(command.Pin)
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			logger.Info("Pin level",
				log.Int("pin", command.Pin),
				log.Stringer("level", level))

		case OpState:
			logger.Info("Register state",
				log.Hex("state", chain.TestAllBits()),
				log.Int("bits", chain.Bits()))

		case OpWrite:
			if err := chain.WriteBits(command.Value); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			staged = false

		case OpPush:
			if err := chain.Push(); err != nil {
				return fmt.Errorf("push: %w", err)
			}
			staged = false

		case OpWait:
			if err := wait(ctx, command.Wait); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown command '%s'", command.Op)
		}
	}

	if staged {
		if err := chain.Push(); err != nil {
			return fmt.Errorf("pushing staged changes: %w", err)
		}
	}
	return nil
}

// wait pauses for the given duration, aborting early when the context is
// cancelled.
func wait(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
