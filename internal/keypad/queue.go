package keypad

import (
	"context"
	"fmt"
)

// Queue is a Keypad fed by key events from a frontend goroutine.
// Events that arrive while the queue is full are dropped.
type Queue struct {
	events chan Key
	errs   chan error
}

var _ Keypad = (*Queue)(nil)

// NewQueue returns a queue that buffers up to size pending key events.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		events: make(chan Key, size),
		errs:   make(chan error, 1),
	}
}

// Press records a key event. It never blocks and reports whether the event
// was queued.
func (q *Queue) Press(k Key) bool {
	if !k.Valid() {
		return false
	}
	select {
	case q.events <- k:
		return true
	default:
		return false
	}
}

// Fail reports a failure of the input device. The error is returned by the
// next PollKey or AwaitKey call.
func (q *Queue) Fail(err error) {
	select {
	case q.errs <- err:
	default:
	}
}

// PollKey returns the next pending key event without blocking.
func (q *Queue) PollKey() (Key, bool, error) {
	select {
	case err := <-q.errs:
		return 0, false, fmt.Errorf("polling key: %w", err)
	default:
	}

	select {
	case k := <-q.events:
		return k, true, nil
	default:
		return 0, false, nil
	}
}

// AwaitKey blocks until a key event is available or the context is done.
func (q *Queue) AwaitKey(ctx context.Context) (Key, error) {
	select {
	case err := <-q.errs:
		return 0, fmt.Errorf("awaiting key: %w", err)
	case k := <-q.events:
		return k, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
