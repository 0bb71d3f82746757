// Package main implements the main entry point for the sregctl shift register chain control tool
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"github.com/venelinpetrov/sreg/internal/cli"
	"github.com/venelinpetrov/sreg/internal/config"
	"github.com/venelinpetrov/sreg/internal/pipeline"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, cfg, args, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			pipeline.PrintBanner(logger, opts, version, commit, date)
			if msg := usageErr.Error(); msg != "" {
				logger.Error(msg)
			}
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	pipeline.PrintBanner(logger, opts, version, commit, date)

	if err := pipeline.New(logger).Execute(ctx, opts, cfg, args); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Driving chain failed", log.Err(err))
		os.Exit(1)
	}
}
