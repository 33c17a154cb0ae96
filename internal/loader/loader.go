// Package loader handles program image loading operations.
package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/vm"
)

// Load reads a raw program image from disk. Images that do not fit into the
// interpreter memory are rejected before any instruction executes.
func Load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	program, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return program, nil
}

// Read reads a raw program image from a reader. The image has no header and
// is loaded verbatim.
func Read(r io.Reader) ([]byte, error) {
	// read one byte more than allowed to detect oversized images without
	// reading all of a large file
	program, err := io.ReadAll(io.LimitReader(r, vm.MaxProgramSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	if len(program) > vm.MaxProgramSize {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", vm.ErrProgramTooLarge, vm.MaxProgramSize)
	}
	return program, nil
}
