package vm

import (
	"context"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// step holds the decoded operand fields of the instruction being executed.
type step struct {
	pc     uint16 // address of the instruction
	opcode uint16

	x   byte   // register index, bits 8-11
	y   byte   // register index, bits 4-7
	n   byte   // immediate nibble, bits 0-3
	kk  byte   // immediate byte, bits 0-7
	nnn uint16 // immediate address, bits 0-11

	drawn bool
}

func decode(pc, opcode uint16) *step {
	return &step{
		pc:     pc,
		opcode: opcode,
		x:      byte(opcode>>8) & 0xF,
		y:      byte(opcode>>4) & 0xF,
		n:      byte(opcode) & 0xF,
		kk:     byte(opcode),
		nnn:    opcode & 0x0FFF,
	}
}

type handler func(m *VM, ctx context.Context, s *step) error

// opcodeHandler binds an instruction encoding to its implementation. An
// opcode matches if opcode&Mask == Value.
type opcodeHandler struct {
	info chip8.OpcodeInfo
	exec handler
}

// opcodes contains all supported instructions indexed by the high nibble,
// in the same order as chip8.Opcodes.
var opcodes = [16][]opcodeHandler{
	0x0: {
		{chip8.Opcode00E0, (*VM).cls},
		{chip8.Opcode00EE, (*VM).ret},
	},
	0x1: {{chip8.Opcode1000, (*VM).jp}},
	0x2: {{chip8.Opcode2000, (*VM).call}},
	0x3: {{chip8.Opcode3000, (*VM).seByte}},
	0x4: {{chip8.Opcode4000, (*VM).sneByte}},
	0x5: {{chip8.Opcode5000, (*VM).seReg}},
	0x6: {{chip8.Opcode6000, (*VM).ldByte}},
	0x7: {{chip8.Opcode7000, (*VM).addByte}},
	0x8: {
		{chip8.Opcode8000, (*VM).ldReg},
		{chip8.Opcode8001, (*VM).or},
		{chip8.Opcode8002, (*VM).and},
		{chip8.Opcode8003, (*VM).xor},
		{chip8.Opcode8004, (*VM).addReg},
		{chip8.Opcode8005, (*VM).sub},
		{chip8.Opcode8006, (*VM).shr},
		{chip8.Opcode8007, (*VM).subn},
		{chip8.Opcode800E, (*VM).shl},
	},
	0x9: {{chip8.Opcode9000, (*VM).sneReg}},
	0xA: {{chip8.OpcodeA000, (*VM).ldI}},
	0xB: {{chip8.OpcodeB000, (*VM).jpV0}},
	0xC: {{chip8.OpcodeC000, (*VM).rnd}},
	0xD: {{chip8.OpcodeD000, (*VM).drw}},
	0xE: {
		{chip8.OpcodeE09E, (*VM).skp},
		{chip8.OpcodeE0A1, (*VM).sknp},
	},
	0xF: {
		{chip8.OpcodeF007, (*VM).ldVxDT},
		{chip8.OpcodeF00A, (*VM).ldVxK},
		{chip8.OpcodeF015, (*VM).ldDTVx},
		{chip8.OpcodeF018, (*VM).ldSTVx},
		{chip8.OpcodeF01E, (*VM).addI},
		{chip8.OpcodeF029, (*VM).ldF},
		{chip8.OpcodeF033, (*VM).ldB},
		{chip8.OpcodeF055, (*VM).ldIVx},
		{chip8.OpcodeF065, (*VM).ldVxI},
	},
}

// lookup returns the handler for an opcode or nil if it is unknown.
func lookup(opcode uint16) handler {
	for _, op := range opcodes[opcode>>12] {
		if op.info.Mask&opcode == op.info.Value {
			return op.exec
		}
	}
	return nil
}

// 00E0 - CLS
func (m *VM) cls(_ context.Context, s *step) error {
	m.display.Clear()
	s.drawn = true
	return nil
}

// 00EE - RET
// Returning with an empty stack restarts the program.
func (m *VM) ret(_ context.Context, s *step) error {
	addr, ok := m.pop()
	if !ok {
		addr = ProgramStart
		if m.observer != nil {
			m.observer.StackUnderflow(s.pc)
		}
	}
	m.pc = addr
	return nil
}

// 1nnn - JP addr
func (m *VM) jp(_ context.Context, s *step) error {
	m.pc = s.nnn
	return nil
}

// 2nnn - CALL addr
func (m *VM) call(_ context.Context, s *step) error {
	m.push(m.pc)
	m.pc = s.nnn
	return nil
}

// 3xkk - SE Vx, byte
func (m *VM) seByte(_ context.Context, s *step) error {
	m.skipIf(m.v[s.x] == s.kk)
	return nil
}

// 4xkk - SNE Vx, byte
func (m *VM) sneByte(_ context.Context, s *step) error {
	m.skipIf(m.v[s.x] != s.kk)
	return nil
}

// 5xy0 - SE Vx, Vy
func (m *VM) seReg(_ context.Context, s *step) error {
	m.skipIf(m.v[s.x] == m.v[s.y])
	return nil
}

// 6xkk - LD Vx, byte
func (m *VM) ldByte(_ context.Context, s *step) error {
	m.v[s.x] = s.kk
	return nil
}

// 7xkk - ADD Vx, byte
// The carry flag is not affected.
func (m *VM) addByte(_ context.Context, s *step) error {
	m.v[s.x] += s.kk
	return nil
}

// 8xy0 - LD Vx, Vy
func (m *VM) ldReg(_ context.Context, s *step) error {
	m.v[s.x] = m.v[s.y]
	return nil
}

// 8xy1 - OR Vx, Vy
func (m *VM) or(_ context.Context, s *step) error {
	m.v[s.x] |= m.v[s.y]
	return nil
}

// 8xy2 - AND Vx, Vy
func (m *VM) and(_ context.Context, s *step) error {
	m.v[s.x] &= m.v[s.y]
	return nil
}

// 8xy3 - XOR Vx, Vy
func (m *VM) xor(_ context.Context, s *step) error {
	m.v[s.x] ^= m.v[s.y]
	return nil
}

// The flag setting instructions below write the result first and the flag
// last, so for x == F the flag wins.

// 8xy4 - ADD Vx, Vy
func (m *VM) addReg(_ context.Context, s *step) error {
	sum := uint16(m.v[s.x]) + uint16(m.v[s.y])
	m.v[s.x] = byte(sum)
	m.setFlag(sum > 0xFF)
	return nil
}

// 8xy5 - SUB Vx, Vy
// VF is 0 if a borrow occurred and 1 otherwise.
func (m *VM) sub(_ context.Context, s *step) error {
	vx, vy := m.v[s.x], m.v[s.y]
	m.v[s.x] = vx - vy
	m.setFlag(vx >= vy)
	return nil
}

// 8xy6 - SHR Vx
func (m *VM) shr(_ context.Context, s *step) error {
	vx := m.v[s.x]
	m.v[s.x] = vx >> 1
	m.v[FlagRegister] = vx & 0x01
	return nil
}

// 8xy7 - SUBN Vx, Vy
// VF is 0 if a borrow occurred and 1 otherwise.
func (m *VM) subn(_ context.Context, s *step) error {
	vx, vy := m.v[s.x], m.v[s.y]
	m.v[s.x] = vy - vx
	m.setFlag(vy >= vx)
	return nil
}

// 8xyE - SHL Vx
// VF receives the unshifted bit 7 in place, it is 0x80 or 0.
func (m *VM) shl(_ context.Context, s *step) error {
	vx := m.v[s.x]
	m.v[s.x] = vx << 1
	m.v[FlagRegister] = vx & 0x80
	return nil
}

// 9xy0 - SNE Vx, Vy
func (m *VM) sneReg(_ context.Context, s *step) error {
	m.skipIf(m.v[s.x] != m.v[s.y])
	return nil
}

// Annn - LD I, addr
func (m *VM) ldI(_ context.Context, s *step) error {
	m.i = s.nnn
	return nil
}

// Bnnn - JP V0, addr
func (m *VM) jpV0(_ context.Context, s *step) error {
	m.pc = s.nnn + uint16(m.v[0])
	return nil
}

// Cxkk - RND Vx, byte
func (m *VM) rnd(_ context.Context, s *step) error {
	m.v[s.x] = m.random.NextByte() & s.kk
	return nil
}

// Dxyn - DRW Vx, Vy, nibble
// Draws the n byte sprite at I. The start position wraps around the screen,
// pixels beyond the right and bottom edges are clipped.
func (m *VM) drw(_ context.Context, s *step) error {
	if err := m.checkRange("sprite read", s, int(s.n)); err != nil {
		return err
	}

	x0 := int(m.v[s.x]) % display.Width
	y0 := int(m.v[s.y]) % display.Height
	var collision bool

	for row := range int(s.n) {
		y := y0 + row
		if y >= display.Height {
			break
		}
		sprite := m.memory[int(m.i)+row]
		for col := range 8 {
			x := x0 + col
			if x >= display.Width {
				break
			}
			if sprite&(0x80>>col) != 0 && m.display.Draw(x, y) {
				collision = true
			}
		}
	}

	m.setFlag(collision)
	s.drawn = true
	return nil
}

// Ex9E - SKP Vx
func (m *VM) skp(_ context.Context, s *step) error {
	k, ok, err := m.keypad.PollKey()
	if err != nil {
		return err
	}
	m.skipIf(ok && byte(k) == m.v[s.x])
	return nil
}

// ExA1 - SKNP Vx
func (m *VM) sknp(_ context.Context, s *step) error {
	k, ok, err := m.keypad.PollKey()
	if err != nil {
		return err
	}
	m.skipIf(!ok || byte(k) != m.v[s.x])
	return nil
}

// Fx07 - LD Vx, DT
func (m *VM) ldVxDT(_ context.Context, s *step) error {
	m.v[s.x] = m.dt
	return nil
}

// Fx0A - LD Vx, K
// Blocks until a key event arrives or the context is done.
func (m *VM) ldVxK(ctx context.Context, s *step) error {
	k, err := m.keypad.AwaitKey(ctx)
	if err != nil {
		return err
	}
	m.v[s.x] = byte(k)
	return nil
}

// Fx15 - LD DT, Vx
func (m *VM) ldDTVx(_ context.Context, s *step) error {
	m.dt = m.v[s.x]
	return nil
}

// Fx18 - LD ST, Vx
func (m *VM) ldSTVx(_ context.Context, s *step) error {
	m.st = m.v[s.x]
	return nil
}

// Fx1E - ADD I, Vx
// I is not masked to 12 bits, accesses beyond the address space fail.
func (m *VM) addI(_ context.Context, s *step) error {
	m.i += uint16(m.v[s.x])
	return nil
}

// Fx29 - LD F, Vx
func (m *VM) ldF(_ context.Context, s *step) error {
	m.i = uint16(m.v[s.x]&0xF) * GlyphSize
	return nil
}

// Fx33 - LD B, Vx
func (m *VM) ldB(_ context.Context, s *step) error {
	if err := m.checkRange("BCD store", s, 3); err != nil {
		return err
	}
	vx := m.v[s.x]
	m.memory[m.i] = vx / 100
	m.memory[m.i+1] = vx / 10 % 10
	m.memory[m.i+2] = vx % 10
	return nil
}

// Fx55 - LD [I], Vx
func (m *VM) ldIVx(_ context.Context, s *step) error {
	count := int(s.x) + 1
	if err := m.checkRange("register store", s, count); err != nil {
		return err
	}
	copy(m.memory[m.i:], m.v[:count])
	return nil
}

// Fx65 - LD Vx, [I]
func (m *VM) ldVxI(_ context.Context, s *step) error {
	count := int(s.x) + 1
	if err := m.checkRange("register load", s, count); err != nil {
		return err
	}
	copy(m.v[:count], m.memory[m.i:])
	return nil
}

func (m *VM) skipIf(cond bool) {
	if cond {
		m.pc += opcodeSize
	}
}

func (m *VM) setFlag(set bool) {
	if set {
		m.v[FlagRegister] = 1
	} else {
		m.v[FlagRegister] = 0
	}
}
