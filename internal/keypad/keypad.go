// Package keypad defines the 16 key input device of the virtual machine.
package keypad

import (
	"context"
	"fmt"
)

// Key is a logical key identifier in the range 0x0 to 0xF.
type Key byte

// KeyCount is the number of keys of the keypad.
const KeyCount = 16

// String returns the hexadecimal digit of the key.
func (k Key) String() string {
	return fmt.Sprintf("%X", byte(k))
}

// Valid returns whether the key is one of the 16 logical keys.
func (k Key) Valid() bool {
	return k < KeyCount
}

// Keypad is the input capability the interpreter consumes.
// Event sourcing is done by a frontend that owns the real input device.
type Keypad interface {
	// PollKey returns the key of a pending key event without blocking.
	// The boolean is false if no key event is pending.
	PollKey() (Key, bool, error)

	// AwaitKey blocks until a key event occurs or the context is done.
	AwaitKey(ctx context.Context) (Key, error)
}

// None is a Keypad without an input device. It never reports a key event and
// AwaitKey only returns when the context is done.
type None struct{}

// PollKey always reports that no key event is pending.
func (None) PollKey() (Key, bool, error) {
	return 0, false, nil
}

// AwaitKey blocks until the context is done.
func (None) AwaitKey(ctx context.Context) (Key, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}
