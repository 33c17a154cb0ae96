// Package termbox implements a frontend based on the termbox library.
package termbox

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nsf/termbox-go"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/keypad"
)

const pixelOn = '█'

// Frontend renders into a termbox screen and feeds keyboard events into a
// keypad queue.
type Frontend struct {
	mapping keypad.Mapping
	keys    *keypad.Queue
	stop    func()

	// replaced in tests, termbox needs a terminal
	interrupt   func()
	closeScreen func()

	mu     sync.Mutex
	opened bool
	done   chan struct{}
}

// New returns a termbox frontend. Escape and Ctrl+C call stop, as termbox
// captures the signal keys itself.
func New(mapping keypad.Mapping, keys *keypad.Queue, stop func()) *Frontend {
	return &Frontend{
		mapping:     mapping,
		keys:        keys,
		stop:        stop,
		interrupt:   termbox.Interrupt,
		closeScreen: termbox.Close,
	}
}

// Open initializes termbox and starts polling events.
func (f *Frontend) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.opened {
		return errors.New("termbox already open")
	}
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("initializing termbox: %w", err)
	}
	termbox.SetInputMode(termbox.InputEsc)
	termbox.HideCursor()

	f.opened = true
	f.done = make(chan struct{})
	go f.pollEvents(termbox.PollEvent)
	return nil
}

// Render draws a complete frame.
func (f *Frontend) Render(snap display.Snapshot) error {
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		return fmt.Errorf("clearing screen: %w", err)
	}
	drawCells(snap, func(x, y int) {
		termbox.SetCell(x, y, pixelOn, termbox.ColorWhite, termbox.ColorDefault)
	})
	if err := termbox.Flush(); err != nil {
		return fmt.Errorf("flushing screen: %w", err)
	}
	return nil
}

// Close stops event polling and restores the terminal. Calling Close more
// than once has no effect.
func (f *Frontend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.opened {
		return nil
	}
	f.opened = false

	f.stopPolling()
	f.closeScreen()
	return nil
}

// stopPolling ends the event polling goroutine. The interrupt is only
// received by a running poll, if polling already ended after an error the
// interrupt stays pending and is abandoned.
func (f *Frontend) stopPolling() {
	select {
	case <-f.done:
		return
	default:
	}

	interrupted := make(chan struct{})
	go func() {
		f.interrupt()
		close(interrupted)
	}()

	select {
	case <-interrupted:
		<-f.done
	case <-f.done:
	}
}

func (f *Frontend) pollEvents(poll func() termbox.Event) {
	defer close(f.done)
	for {
		if !f.handleEvent(poll()) {
			return
		}
	}
}

// handleEvent processes a single termbox event and reports whether polling
// should continue.
func (f *Frontend) handleEvent(ev termbox.Event) bool {
	switch ev.Type {
	case termbox.EventInterrupt:
		return false

	case termbox.EventError:
		f.keys.Fail(fmt.Errorf("polling termbox event: %w", ev.Err))
		return false

	case termbox.EventKey:
		if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
			if f.stop != nil {
				f.stop()
			}
			return true
		}
		if ev.Ch == 0 {
			return true
		}
		if key, ok := f.mapping.Key(ev.Ch); ok {
			f.keys.Press(key)
		}
	}
	return true
}

// drawCells calls set for every lit pixel.
func drawCells(snap display.Snapshot, set func(x, y int)) {
	for y := range display.Height {
		for x := range display.Width {
			if snap.Pixel(x, y) {
				set(x, y)
			}
		}
	}
}
