// Package vm implements the interpreter core of the CHIP-8 virtual machine:
// the fetch-decode-execute cycle and the register, memory, stack and timer
// state it mutates.
package vm

import (
	"context"
	"fmt"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/keypad"
	"github.com/retroenv/retrochip8/internal/rng"
)

// RandomSource produces the bytes used by the RND instruction.
type RandomSource interface {
	NextByte() byte
}

// Observer is notified about every cycle. It is used for tracing and makes
// absorbed conditions visible without turning them into errors.
type Observer interface {
	// Executed is called after an instruction at pc was executed.
	Executed(pc, opcode uint16)
	// UnknownOpcode is called for an opcode that was skipped as a no-op.
	UnknownOpcode(pc, opcode uint16)
	// StackUnderflow is called when a return with an empty stack jumped to
	// ProgramStart.
	StackUnderflow(pc uint16)
}

// CycleResult describes the outcome of a single cycle.
type CycleResult struct {
	PC     uint16 // address the opcode was fetched from
	Opcode uint16
	Known  bool // false if the opcode was skipped as unknown
	Drawn  bool // the display was cleared or drawn to
}

// VM is a CHIP-8 interpreter. All state is owned by a single VM and must not
// be accessed concurrently.
type VM struct {
	memory [MemorySize]byte
	v      [RegisterCount]byte
	i      uint16
	pc     uint16
	stack  []uint16
	dt     byte
	st     byte

	display  *display.Display
	keypad   keypad.Keypad
	random   RandomSource
	observer Observer
}

// Option configures a VM.
type Option func(*VM)

// WithKeypad sets the input device. Without it the VM never sees a key.
func WithKeypad(k keypad.Keypad) Option {
	return func(m *VM) {
		m.keypad = k
	}
}

// WithRandom sets the random byte source, the default is the DOOM table
// generator starting at seed 0.
func WithRandom(r RandomSource) Option {
	return func(m *VM) {
		m.random = r
	}
}

// WithObserver sets an observer that is notified about every cycle.
func WithObserver(o Observer) Option {
	return func(m *VM) {
		m.observer = o
	}
}

// New returns a VM in reset state.
func New(opts ...Option) *VM {
	m := &VM{
		display: display.New(),
		keypad:  keypad.None{},
		random:  rng.New(0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Reset()
	return m
}

// Reset zeroes all registers, memory, the stack and the timers, clears the
// display and writes the font table to address 0. The program counter is set
// to ProgramStart.
func (m *VM) Reset() {
	m.memory = [MemorySize]byte{}
	m.v = [RegisterCount]byte{}
	m.i = 0
	m.pc = ProgramStart
	m.stack = m.stack[:0]
	m.dt = 0
	m.st = 0
	m.display.Clear()

	copy(m.memory[:], font[:])
}

// LoadProgram copies a program image to memory starting at ProgramStart.
// Programs larger than MaxProgramSize are rejected without modifying memory.
func (m *VM) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, maximum is %d bytes",
			ErrProgramTooLarge, len(program), MaxProgramSize)
	}
	copy(m.memory[ProgramStart:], program)
	return nil
}

// Cycle fetches, decodes and executes a single instruction and decays the
// timers afterwards.
//
// Unknown opcodes are executed as no-ops. If an instruction fails, no state
// is modified and the program counter is left pointing at the failed
// instruction, so that a later cycle retries it. This applies to a key wait
// that was interrupted by cancelling the context.
func (m *VM) Cycle(ctx context.Context) (CycleResult, error) {
	pc := m.pc
	opcode, err := m.fetch(pc)
	if err != nil {
		return CycleResult{PC: pc}, err
	}

	m.pc += opcodeSize
	s := decode(pc, opcode)
	res := CycleResult{
		PC:     pc,
		Opcode: opcode,
	}

	exec := lookup(opcode)
	if exec == nil {
		if m.observer != nil {
			m.observer.UnknownOpcode(pc, opcode)
		}
		m.decayTimers()
		return res, nil
	}

	if err := exec(m, ctx, s); err != nil {
		m.pc = pc
		return res, err
	}
	res.Known = true
	res.Drawn = s.drawn
	if m.observer != nil {
		m.observer.Executed(pc, opcode)
	}

	m.decayTimers()
	return res, nil
}

// decayTimers halves both timers once per cycle. Timer decay is bound to the
// cycle rate instead of a 60 Hz clock.
func (m *VM) decayTimers() {
	if m.st > 0 {
		m.st >>= 1
	}
	if m.dt > 0 {
		m.dt >>= 1
	}
}

// fetch reads the big endian opcode at addr.
func (m *VM) fetch(addr uint16) (uint16, error) {
	if int(addr)+opcodeSize > MemorySize {
		return 0, &AddressError{
			Op:      "fetch",
			PC:      addr,
			Address: int(addr),
			Length:  opcodeSize,
		}
	}
	return uint16(m.memory[addr])<<8 | uint16(m.memory[addr+1]), nil
}

// checkRange verifies that length bytes starting at the index register are
// inside the address space.
func (m *VM) checkRange(op string, s *step, length int) error {
	if int(m.i)+length > MemorySize {
		return &AddressError{
			Op:      op,
			PC:      s.pc,
			Address: int(m.i),
			Length:  length,
		}
	}
	return nil
}

func (m *VM) push(addr uint16) {
	m.stack = append(m.stack, addr)
}

func (m *VM) pop() (uint16, bool) {
	if len(m.stack) == 0 {
		return 0, false
	}
	addr := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return addr, true
}

// PC returns the program counter.
func (m *VM) PC() uint16 {
	return m.pc
}

// I returns the index register.
func (m *VM) I() uint16 {
	return m.i
}

// V returns the value of register Vx.
func (m *VM) V(x int) byte {
	return m.v[x]
}

// DT returns the delay timer.
func (m *VM) DT() byte {
	return m.dt
}

// ST returns the sound timer.
func (m *VM) ST() byte {
	return m.st
}

// SoundActive returns whether the sound timer is running.
func (m *VM) SoundActive() bool {
	return m.st > 0
}

// Stack returns a copy of the saved return addresses, oldest first.
func (m *VM) Stack() []uint16 {
	return append([]uint16(nil), m.stack...)
}

// ReadMemory returns the byte at addr.
func (m *VM) ReadMemory(addr uint16) byte {
	return m.memory[addr%MemorySize]
}

// Memory returns a copy of the whole memory.
func (m *VM) Memory() [MemorySize]byte {
	return m.memory
}

// Display returns a snapshot of the framebuffer.
func (m *VM) Display() display.Snapshot {
	return m.display.Snapshot()
}
