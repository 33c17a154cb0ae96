package termbox

import (
	"errors"
	"testing"
	"time"

	"github.com/nsf/termbox-go"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/keypad"
	"github.com/retroenv/retrogolib/assert"
)

func TestHandleKeyEvent(t *testing.T) {
	keys := keypad.NewQueue(4)
	f := New(keypad.DefaultMapping(), keys, nil)

	assert.True(t, f.handleEvent(termbox.Event{Type: termbox.EventKey, Ch: 'v'}))
	assert.True(t, f.handleEvent(termbox.Event{Type: termbox.EventKey, Ch: 'p'}))
	assert.True(t, f.handleEvent(termbox.Event{Type: termbox.EventKey, Key: termbox.KeySpace}))

	key, ok, err := keys.PollKey()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, keypad.Key(0xF), key)

	_, ok, err = keys.PollKey()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleStopKeys(t *testing.T) {
	stops := 0
	f := New(keypad.DefaultMapping(), keypad.NewQueue(1), func() { stops++ })

	assert.True(t, f.handleEvent(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyEsc}))
	assert.True(t, f.handleEvent(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlC}))
	assert.Equal(t, 2, stops)
}

func TestHandleTerminalEvents(t *testing.T) {
	keys := keypad.NewQueue(1)
	f := New(keypad.DefaultMapping(), keys, nil)

	assert.True(t, f.handleEvent(termbox.Event{Type: termbox.EventResize}))
	assert.False(t, f.handleEvent(termbox.Event{Type: termbox.EventInterrupt}))

	pollErr := errors.New("tty closed")
	assert.False(t, f.handleEvent(termbox.Event{Type: termbox.EventError, Err: pollErr}))

	_, _, err := keys.PollKey()
	assert.ErrorIs(t, err, pollErr)
}

func TestDrawCells(t *testing.T) {
	d := display.New()
	d.Draw(3, 4)
	d.Draw(63, 31)

	var cells [][2]int
	drawCells(d.Snapshot(), func(x, y int) {
		cells = append(cells, [2]int{x, y})
	})
	assert.Equal(t, [][2]int{{3, 4}, {63, 31}}, cells)
}

func TestCloseUnopened(t *testing.T) {
	f := New(keypad.DefaultMapping(), keypad.NewQueue(1), nil)
	assert.NoError(t, f.Close())
}

func startPolling(f *Frontend, poll func() termbox.Event) {
	f.opened = true
	f.done = make(chan struct{})
	go f.pollEvents(poll)
}

func closeWithTimeout(t *testing.T, f *Frontend) {
	t.Helper()

	closed := make(chan error, 1)
	go func() { closed <- f.Close() }()

	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestCloseInterruptsPolling(t *testing.T) {
	keys := keypad.NewQueue(1)
	f := New(keypad.DefaultMapping(), keys, nil)

	events := make(chan termbox.Event)
	screenClosed := false
	f.interrupt = func() { events <- termbox.Event{Type: termbox.EventInterrupt} }
	f.closeScreen = func() { screenClosed = true }
	startPolling(f, func() termbox.Event { return <-events })

	events <- termbox.Event{Type: termbox.EventKey, Ch: '1'}
	closeWithTimeout(t, f)
	assert.True(t, screenClosed)

	key, ok, err := keys.PollKey()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, keypad.Key(0x1), key)
}

func TestCloseAfterPollError(t *testing.T) {
	keys := keypad.NewQueue(1)
	f := New(keypad.DefaultMapping(), keys, nil)

	// nothing receives the interrupt once polling ended
	pending := make(chan struct{})
	t.Cleanup(func() { close(pending) })
	screenClosed := false
	f.interrupt = func() { <-pending }
	f.closeScreen = func() { screenClosed = true }

	pollErr := errors.New("tty closed")
	startPolling(f, func() termbox.Event {
		return termbox.Event{Type: termbox.EventError, Err: pollErr}
	})

	closeWithTimeout(t, f)
	assert.True(t, screenClosed)

	_, _, err := keys.PollKey()
	assert.ErrorIs(t, err, pollErr)
}
