// Package pipeline orchestrates the chain control workflow stages.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg"
	"github.com/venelinpetrov/sreg/internal/config"
	"github.com/venelinpetrov/sreg/internal/detector"
	"github.com/venelinpetrov/sreg/internal/options"
	"github.com/venelinpetrov/sreg/internal/script"
	"github.com/venelinpetrov/sreg/internal/trace"
	"github.com/venelinpetrov/sreg/internal/verification"
)

// Pipeline orchestrates the complete chain control workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
}

// New creates a new chain control pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
	}
}

// Execute runs the complete chain control pipeline: it chooses and opens
// the output backend, builds the register chain, runs the commands from
// the script file and the command line, and afterwards verifies and
// renders the recorded transitions when requested.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, cfg sreg.Config, args []string) error {
	opts.Backend = p.detector.Detect(opts)

	out, err := config.OpenBackend(p.logger, opts)
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	defer func() {
		if closer, ok := out.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	var tracer *trace.Tracer
	if opts.Verify || opts.Trace != "" {
		tracer = trace.New(out)
		out = tracer
	}

	p.printInfo(opts, cfg)

	chain, err := sreg.New(p.logger, out, cfg)
	if err != nil {
		return fmt.Errorf("creating chain: %w", err)
	}

	commands, err := p.loadCommands(opts, args)
	if err != nil {
		return err
	}

	if err := script.Run(ctx, p.logger, chain, commands); err != nil {
		return fmt.Errorf("running commands: %w", err)
	}

	if opts.Verify {
		if err := verification.VerifyPush(p.logger, cfg, tracer.Events(), chain.TestAllBits()); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		p.logger.Info("Verification successful")
	}

	if opts.Trace != "" {
		if err := p.writeTrace(opts.Trace, cfg, tracer.Events()); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}

	return nil
}

// loadCommands collects commands from the script file and the command line
// arguments, in that order.
func (p *Pipeline) loadCommands(opts options.Program, args []string) ([]script.Command, error) {
	var commands []script.Command

	if opts.Script != "" {
		fileCommands, err := script.Load(opts.Script)
		if err != nil {
			return nil, fmt.Errorf("loading script: %w", err)
		}
		commands = fileCommands
	}

	argCommands, err := script.ParseArgs(args)
	if err != nil {
		return nil, fmt.Errorf("parsing commands: %w", err)
	}
	return append(commands, argCommands...), nil
}

// printInfo prints information about the chain being driven.
func (p *Pipeline) printInfo(opts options.Program, cfg sreg.Config) {
	if opts.Quiet {
		return
	}

	p.logger.Info("Driving register chain",
		log.String("backend", opts.Backend),
		log.Uint8("data", uint8(cfg.Data)),
		log.Uint8("clock", uint8(cfg.Clock)),
		log.Uint8("latch", uint8(cfg.Latch)),
		log.Int("registers", cfg.Registers),
	)

	if opts.Backend == config.BackendDry {
		p.logger.Warn("Dry-run backend selected, no hardware is driven")
	}
}

// writeTrace renders the recorded transitions to the trace destination,
// "-" prints them to standard output.
func (p *Pipeline) writeTrace(path string, cfg sreg.Config, transitions []sreg.Transition) error {
	labels := trace.Labels(cfg)

	if path == "-" {
		return trace.Write(os.Stdout, labels, transitions)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	if err := trace.Write(file, labels, transitions); err != nil {
		return err
	}

	p.logger.Debug("Trace written",
		log.String("file", path),
		log.Int("transitions", len(transitions)))
	return nil
}

// PrintBanner prints application version information.
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}
	logger.Info("sregctl", log.String("version", buildinfo.Version(version, commit, date)))
}
