// Package trace implements an interpreter observer that logs executed
// instructions and absorbed faults.
package trace

import (
	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/log"
)

var _ vm.Observer = (*Tracer)(nil)

// Tracer logs interpreter events. Executed instructions are only logged if
// instruction tracing is enabled, unknown opcodes and stack underflows are
// always logged as warnings.
type Tracer struct {
	logger       *log.Logger
	instructions bool

	executed uint64
	unknown  uint64
}

// New returns a tracer that logs to logger. If instructions is set, every
// executed instruction is logged at debug level.
func New(logger *log.Logger, instructions bool) *Tracer {
	return &Tracer{
		logger:       logger,
		instructions: instructions,
	}
}

// Executed logs an executed instruction.
func (t *Tracer) Executed(pc, opcode uint16) {
	t.executed++
	if !t.instructions {
		return
	}
	t.logger.Debug("Executed",
		log.Hex("pc", pc),
		log.Hex("opcode", opcode),
		log.String("instruction", disasm.Format(opcode)))
}

// UnknownOpcode logs an opcode that was skipped.
func (t *Tracer) UnknownOpcode(pc, opcode uint16) {
	t.unknown++
	t.logger.Warn("Unknown opcode skipped",
		log.Hex("pc", pc),
		log.Hex("opcode", opcode))
}

// StackUnderflow logs a return with an empty stack.
func (t *Tracer) StackUnderflow(pc uint16) {
	t.logger.Warn("Return with empty stack, restarting program",
		log.Hex("pc", pc),
		log.Hex("target", uint16(vm.ProgramStart)))
}

// Counts returns the number of executed instructions and skipped unknown
// opcodes.
func (t *Tracer) Counts() (executed, unknown uint64) {
	return t.executed, t.unknown
}
