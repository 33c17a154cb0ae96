package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrProgramTooLarge is returned when a program does not fit into the
	// memory above ProgramStart.
	ErrProgramTooLarge = errors.New("program too large")

	// ErrAddressOutOfRange is returned when an instruction accesses memory
	// outside of the 4 KB address space.
	ErrAddressOutOfRange = errors.New("address out of range")
)

// AddressError describes a memory access outside of the address space.
type AddressError struct {
	Op      string // operation that accessed memory
	PC      uint16 // address of the instruction
	Address int    // first address of the access
	Length  int    // number of bytes accessed
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s of %d bytes at $%04X by instruction at $%03X: %s",
		e.Op, e.Length, e.Address, e.PC, ErrAddressOutOfRange)
}

func (e *AddressError) Unwrap() error {
	return ErrAddressOutOfRange
}
