// Package driver runs the interpreter cycle loop and connects it to a
// frontend that displays the screen and collects key presses.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/log"
)

// Frontend presents the display to the user.
type Frontend interface {
	Open() error
	Render(snap display.Snapshot) error
	Close() error
}

// Machine is the interpreter being driven.
type Machine interface {
	Cycle(ctx context.Context) (vm.CycleResult, error)
	Display() display.Snapshot
	SoundActive() bool
}

// Driver executes cycles at a fixed rate and renders the display whenever
// a cycle drew to it.
type Driver struct {
	logger   *log.Logger
	machine  Machine
	frontend Frontend
	rate     int

	cycles uint64
	frames uint64
	sound  bool
}

// New returns a driver that executes rate cycles per second. A rate of 0
// executes cycles as fast as possible.
func New(logger *log.Logger, machine Machine, frontend Frontend, rate int) *Driver {
	return &Driver{
		logger:   logger,
		machine:  machine,
		frontend: frontend,
		rate:     rate,
	}
}

// Run opens the frontend and executes cycles until the context is done or a
// cycle fails. The frontend is closed on return. Cancellation of the context
// ends the run without error.
func (d *Driver) Run(ctx context.Context) (err error) {
	if err := d.frontend.Open(); err != nil {
		return fmt.Errorf("opening frontend: %w", err)
	}
	defer func() {
		if closeErr := d.frontend.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing frontend: %w", closeErr))
		}
	}()

	if err := d.render(); err != nil {
		return err
	}

	if d.rate <= 0 {
		err = d.runUnpaced(ctx)
	} else {
		err = d.runPaced(ctx)
	}

	d.logger.Debug("Execution stopped",
		log.Int("cycles", int(d.cycles)),
		log.Int("frames", int(d.frames)))
	return err
}

func (d *Driver) runPaced(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(d.rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.step(ctx); err != nil {
				return stopError(ctx, err)
			}
		}
	}
}

func (d *Driver) runUnpaced(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := d.step(ctx); err != nil {
			return stopError(ctx, err)
		}
	}
	return nil
}

func (d *Driver) step(ctx context.Context) error {
	res, err := d.machine.Cycle(ctx)
	if err != nil {
		return fmt.Errorf("executing cycle: %w", err)
	}
	d.cycles++

	if sound := d.machine.SoundActive(); sound != d.sound {
		d.sound = sound
		if sound {
			d.logger.Debug("Sound started", log.Hex("pc", res.PC))
		} else {
			d.logger.Debug("Sound stopped", log.Hex("pc", res.PC))
		}
	}

	if res.Drawn {
		return d.render()
	}
	return nil
}

func (d *Driver) render() error {
	if err := d.frontend.Render(d.machine.Display()); err != nil {
		return fmt.Errorf("rendering frame: %w", err)
	}
	d.frames++
	return nil
}

// Cycles returns the number of completed cycles.
func (d *Driver) Cycles() uint64 {
	return d.cycles
}

// Frames returns the number of rendered frames.
func (d *Driver) Frames() uint64 {
	return d.frames
}

// stopError discards errors caused by the context ending, a cancelled key
// wait is a regular way to stop.
func stopError(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}
