//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package terminal

import "errors"

type termState struct{}

var errUnsupported = errors.New("raw terminal mode is not supported on this platform, use the termbox frontend")

func makeRaw(int) (*termState, error) {
	return nil, errUnsupported
}

func restore(int, *termState) error {
	return nil
}
