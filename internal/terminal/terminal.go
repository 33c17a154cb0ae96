// Package terminal implements a console frontend using ANSI escape sequences
// for output and a raw mode terminal for keyboard input.
package terminal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/keypad"
)

const (
	enterScreen = "\x1b[?1049h\x1b[?25l\x1b[2J"
	leaveScreen = "\x1b[?25h\x1b[?1049l"
	cursorHome  = "\x1b[H"

	pixelOn  = '█'
	pixelOff = ' '

	keyEscape = 0x1b
)

// Terminal renders the display to a text console and feeds key presses
// into a keypad queue.
type Terminal struct {
	in      io.Reader
	out     io.Writer
	mapping keypad.Mapping
	keys    *keypad.Queue
	stop    func()

	mu      sync.Mutex
	frame   bytes.Buffer
	opened  bool
	fd      int
	restore *termState
}

// New returns a console frontend. Key presses read from in are translated
// through mapping and pushed to keys. Pressing escape calls stop.
func New(in io.Reader, out io.Writer, mapping keypad.Mapping, keys *keypad.Queue, stop func()) *Terminal {
	return &Terminal{
		in:      in,
		out:     out,
		mapping: mapping,
		keys:    keys,
		stop:    stop,
	}
}

// Open switches the input to raw mode if it is a terminal, enters the
// alternate screen and starts reading keys.
func (t *Terminal) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.opened {
		return errors.New("terminal already open")
	}

	if f, ok := t.in.(*os.File); ok {
		fd := int(f.Fd())
		state, err := makeRaw(fd)
		if err != nil {
			return fmt.Errorf("entering raw mode: %w", err)
		}
		t.fd = fd
		t.restore = state
	}

	if _, err := io.WriteString(t.out, enterScreen); err != nil {
		_ = t.restoreMode()
		return fmt.Errorf("entering alternate screen: %w", err)
	}

	t.opened = true
	go t.readKeys()
	return nil
}

// Render draws a complete frame, replacing the previous one.
func (t *Terminal) Render(snap display.Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frame.Reset()
	t.frame.WriteString(cursorHome)
	for y := range display.Height {
		for x := range display.Width {
			if snap.Pixel(x, y) {
				t.frame.WriteRune(pixelOn)
			} else {
				t.frame.WriteRune(pixelOff)
			}
		}
		t.frame.WriteString("\r\n")
	}

	if _, err := t.out.Write(t.frame.Bytes()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close leaves the alternate screen and restores the terminal mode.
// Calling Close more than once has no effect.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.opened {
		return nil
	}
	t.opened = false

	_, writeErr := io.WriteString(t.out, leaveScreen)
	modeErr := t.restoreMode()
	if writeErr != nil {
		return fmt.Errorf("leaving alternate screen: %w", writeErr)
	}
	return modeErr
}

func (t *Terminal) restoreMode() error {
	if t.restore == nil {
		return nil
	}
	state := t.restore
	t.restore = nil
	if err := restore(t.fd, state); err != nil {
		return fmt.Errorf("restoring terminal mode: %w", err)
	}
	return nil
}

// readKeys runs until the input is exhausted. A blocking read on a terminal
// can not be interrupted, the goroutine ends with the process in that case.
func (t *Terminal) readKeys() {
	reader := bufio.NewReader(t.in)
	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.keys.Fail(fmt.Errorf("reading terminal input: %w", err))
			}
			return
		}

		if r == keyEscape {
			if skipEscapeSequence(reader) {
				continue
			}
			if t.stop != nil {
				t.stop()
			}
			continue
		}

		if key, ok := t.mapping.Key(r); ok {
			t.keys.Press(key)
		}
	}
}

// skipEscapeSequence consumes the rest of a control sequence sent by arrow,
// function and navigation keys and reports whether one followed the escape
// byte. A sequence arrives in a single read, an escape byte with nothing
// buffered behind it is a lone escape key press.
func skipEscapeSequence(reader *bufio.Reader) bool {
	if reader.Buffered() == 0 {
		return false
	}
	next, err := reader.Peek(1)
	if err != nil {
		return false
	}

	switch next[0] {
	case '[':
		_, _ = reader.ReadByte()
		// parameter and intermediate bytes end with a final byte in 0x40-0x7E
		for reader.Buffered() > 0 {
			b, err := reader.ReadByte()
			if err != nil || (b >= 0x40 && b <= 0x7e) {
				break
			}
		}
		return true

	case 'O':
		_, _ = reader.ReadByte()
		if reader.Buffered() > 0 {
			_, _ = reader.ReadByte()
		}
		return true

	default:
		return false
	}
}
