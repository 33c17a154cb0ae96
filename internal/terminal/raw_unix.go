//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package terminal

import (
	"errors"

	"golang.org/x/sys/unix"
)

type termState = unix.Termios

// makeRaw disables line buffering and echo on the terminal and returns the
// previous state. Signal generation stays enabled so that Ctrl+C still
// cancels the application context. A nil state is returned without error if
// fd is not a terminal.
func makeRaw(fd int) (*termState, error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		if errors.Is(err, unix.ENOTTY) {
			return nil, nil
		}
		return nil, err
	}

	previous := *termios
	state := *termios

	state.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL
	state.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	state.Cflag &^= unix.CSIZE | unix.PARENB
	state.Cflag |= unix.CS8

	// block until at least one byte is available
	state.Cc[unix.VMIN] = 1
	state.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &state); err != nil {
		return nil, err
	}
	return &previous, nil
}

func restore(fd int, state *termState) error {
	return unix.IoctlSetTermios(fd, ioctlSetTermios, state)
}
