package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg"
	"github.com/venelinpetrov/sreg/internal/config"
	"github.com/venelinpetrov/sreg/internal/options"
)

func testOptions() options.Program {
	return options.Program{
		Parameters: options.Parameters{Backend: config.BackendDry},
		Flags:      options.Flags{Quiet: true},
	}
}

func testChainConfig() sreg.Config {
	return sreg.Config{Data: 2, Clock: 3, Latch: 4, Registers: 1}
}

func TestNew(t *testing.T) {
	p := New(log.NewTestLogger(t))

	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
	assert.NotNil(t, p.detector)
}

func TestExecuteDryRun(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := testOptions()
	opts.Verify = true

	args := []string{"set", "0", "toggle", "1", "state"}
	assert.NoError(t, p.Execute(context.Background(), opts, testChainConfig(), args))
}

func TestExecuteScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.sreg")
	script := "# outer leds on, then drop the first\nwrite 0x81\ntoggle 0\n"
	assert.NoError(t, os.WriteFile(path, []byte(script), 0o600))

	p := New(log.NewTestLogger(t))
	opts := testOptions()
	opts.Script = path
	opts.Verify = true

	assert.NoError(t, p.Execute(context.Background(), opts, testChainConfig(), nil))
}

func TestExecuteTraceFile(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "push.trace")

	p := New(log.NewTestLogger(t))
	opts := testOptions()
	opts.Trace = tracePath

	args := []string{"set", "0"}
	assert.NoError(t, p.Execute(context.Background(), opts, testChainConfig(), args))

	data, err := os.ReadFile(tracePath)
	assert.NoError(t, err)

	// the initial push and one staged push, 36 transitions each
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 72)
	assert.Equal(t, "   1  latch low", lines[0])
	assert.Equal(t, "  72  latch high", lines[71])
}

func TestExecuteUnsupportedBackend(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := testOptions()
	opts.Backend = "ftdi"

	err := p.Execute(context.Background(), opts, testChainConfig(), nil)
	assert.ErrorContains(t, err, "opening backend")
}

func TestExecuteInvalidChainConfig(t *testing.T) {
	p := New(log.NewTestLogger(t))

	cfg := testChainConfig()
	cfg.Registers = 0

	err := p.Execute(context.Background(), testOptions(), cfg, nil)
	assert.ErrorContains(t, err, "creating chain")
}

func TestExecuteMissingScript(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := testOptions()
	opts.Script = "/nonexistent/pattern.sreg"

	err := p.Execute(context.Background(), opts, testChainConfig(), nil)
	assert.ErrorContains(t, err, "loading script")
}

func TestExecuteInvalidCommand(t *testing.T) {
	p := New(log.NewTestLogger(t))

	err := p.Execute(context.Background(), testOptions(), testChainConfig(), []string{"blink"})
	assert.ErrorContains(t, err, "parsing commands")
}

func TestExecuteCommandError(t *testing.T) {
	p := New(log.NewTestLogger(t))

	err := p.Execute(context.Background(), testOptions(), testChainConfig(), []string{"set", "8"})
	assert.ErrorContains(t, err, "running commands")
}

func TestPrintBanner(t *testing.T) {
	logger := log.NewTestLogger(t)

	// quiet mode stays silent
	PrintBanner(logger, testOptions(), "1.0.0", "abcdef1234", "2024-01-01")

	PrintBanner(logger, options.Program{}, "dev", "", "")
}
