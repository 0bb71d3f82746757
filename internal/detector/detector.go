// Package detector handles output backend detection.
package detector

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg/internal/config"
	"github.com/venelinpetrov/sreg/internal/options"
)

// Detector handles output backend detection from host probes and options.
type Detector struct {
	logger *log.Logger
	root   string // filesystem root for host probes, swapped in tests
}

// New creates a new backend detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
		root:   "/",
	}
}

// Detect determines the output backend from options or host auto-detection.
// It first checks if a backend is explicitly specified in options, otherwise
// probes the host for supported GPIO hardware. The periph and mcp23017
// backends carry extra parameters and are never auto-detected.
func (d *Detector) Detect(opts options.Program) string {
	if opts.Backend != "" {
		return opts.Backend
	}

	backend := d.detectFromHost()
	d.logger.Debug("Auto-detected backend", log.String("backend", backend))
	return backend
}

// detectFromHost determines the backend based on host hardware probes.
func (d *Detector) detectFromHost() string {
	model, err := os.ReadFile(filepath.Join(d.root, "proc/device-tree/model"))
	if err == nil && strings.Contains(string(model), "Raspberry Pi") {
		return config.BackendRaspi
	}

	if _, err := os.Stat(filepath.Join(d.root, "dev/gpiomem")); err == nil {
		return config.BackendRaspi
	}

	d.logger.Warn("No supported GPIO hardware detected, using the dry-run backend")
	return config.BackendDry
}
