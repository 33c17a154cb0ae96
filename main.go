// Package main implements the main entry point for a CHIP-8 interpreter
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retrochip8/internal/cli"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/detector"
	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/driver"
	"github.com/retroenv/retrochip8/internal/keypad"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/rng"
	"github.com/retroenv/retrochip8/internal/termbox"
	"github.com/retroenv/retrochip8/internal/terminal"
	"github.com/retroenv/retrochip8/internal/trace"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// keyQueueSize is the number of key presses buffered between the frontend
// and the interpreter.
const keyQueueSize = 16

func main() {
	ctx := app.Context()

	opts, mapping, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			config.PrintBanner(logger, opts, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	config.PrintBanner(logger, opts, version, commit, date)

	if err := run(ctx, logger, opts, mapping); err != nil {
		logger.Fatal("Running program failed", log.Err(err))
	}
}

func run(ctx context.Context, logger *log.Logger, opts options.Program, mapping keypad.Mapping) error {
	program, err := loader.Load(opts.Input)
	if err != nil {
		return err
	}
	detector.New(logger).Detect(opts.Input, program)

	if opts.Disasm {
		if err := disasm.Listing(os.Stdout, program, vm.ProgramStart); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		return nil
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	keys := keypad.NewQueue(keyQueueSize)
	tracer := trace.New(logger, opts.Trace)
	machine := vm.New(
		vm.WithKeypad(keys),
		vm.WithRandom(rng.New(byte(opts.Seed))),
		vm.WithObserver(tracer),
	)
	if err := machine.LoadProgram(program); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	logger.Info("Running program",
		log.String("file", opts.Input),
		log.Int("size", len(program)),
		log.String("frontend", opts.Frontend),
		log.Stringer("keymap", mapping))

	frontend := createFrontend(opts.Frontend, mapping, keys, stop)
	d := driver.New(logger, machine, frontend, opts.Rate)
	if err := d.Run(ctx); err != nil {
		return err
	}

	executed, unknown := tracer.Counts()
	logger.Info("Program stopped",
		log.Int("cycles", int(d.Cycles())),
		log.Int("executed", int(executed)),
		log.Int("unknown", int(unknown)))
	return nil
}

func createFrontend(name string, mapping keypad.Mapping, keys *keypad.Queue, stop func()) driver.Frontend {
	if name == options.FrontendTermbox {
		return termbox.New(mapping, keys, stop)
	}
	return terminal.New(os.Stdin, os.Stdout, mapping, keys, stop)
}
