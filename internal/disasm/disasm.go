// Package disasm formats CHIP-8 opcodes as assembly instructions.
// It is used for tracing executed instructions and for printing program
// listings.
package disasm

import (
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Lookup returns the instruction that an opcode encodes, or nil if the
// opcode is not part of the instruction set.
func Lookup(opcode uint16) *chip8.Instruction {
	for _, op := range chip8.Opcodes[int(opcode>>12)] {
		if op.Info.Mask&opcode == op.Info.Value {
			return op.Instruction
		}
	}
	return nil
}

// Format returns the assembly representation of an opcode, for example
// "drw V2, V3, $5". Unknown opcodes are formatted as a data word.
func Format(opcode uint16) string {
	ins := Lookup(opcode)
	if ins == nil {
		return fmt.Sprintf(".word $%04X", opcode)
	}
	if params := formatParams(opcode); params != "" {
		return fmt.Sprintf("%s %s", ins.Name, params)
	}
	return ins.Name
}

// Listing writes a disassembly of a program image that is loaded at base.
// Every line contains the address, the opcode bytes and the instruction.
// A trailing odd byte is written as data.
func Listing(w io.Writer, program []byte, base uint16) error {
	for offset := 0; offset < len(program); offset += 2 {
		addr := int(base) + offset

		if offset+1 == len(program) {
			if _, err := fmt.Fprintf(w, "%03X  %02X     .byte $%02X\n", addr, program[offset], program[offset]); err != nil {
				return fmt.Errorf("writing listing: %w", err)
			}
			break
		}

		opcode, _ := decodeOpcode(program[offset:])
		if _, err := fmt.Fprintf(w, "%03X  %02X %02X  %s\n", addr, program[offset], program[offset+1], Format(opcode)); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
	}
	return nil
}

// formatParams returns the parameter string for an opcode.
func formatParams(opcode uint16) string {
	x := extractRegisterX(opcode)
	y := extractRegisterY(opcode)
	kk := opcode & 0x00FF
	nnn := opcode & 0x0FFF

	switch opcode & 0xF000 {
	case 0x0000:
		return "" // cls, ret
	case 0x1000, 0x2000:
		return fmt.Sprintf("$%03X", nnn)
	case 0x3000, 0x4000, 0x6000, 0x7000, 0xC000:
		return fmt.Sprintf("V%X, $%02X", x, kk)
	case 0x5000, 0x9000:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0x8000:
		return formatALUParams(opcode)
	case 0xA000:
		return fmt.Sprintf("I, $%03X", nnn)
	case 0xB000:
		return fmt.Sprintf("V0, $%03X", nnn)
	case 0xD000:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, opcode&0x000F)
	case 0xE000:
		return fmt.Sprintf("V%X", x)
	default:
		return formatMiscParams(opcode)
	}
}

// formatALUParams formats the register to register instructions 8xyN.
func formatALUParams(opcode uint16) string {
	x := extractRegisterX(opcode)
	switch opcode & 0x000F {
	case 0x6, 0xE:
		return fmt.Sprintf("V%X", x) // shr, shl
	default:
		return fmt.Sprintf("V%X, V%X", x, extractRegisterY(opcode))
	}
}

// formatMiscParams formats the timer, index and memory instructions FxNN.
func formatMiscParams(opcode uint16) string {
	x := extractRegisterX(opcode)
	switch opcode & 0x00FF {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x1E:
		return fmt.Sprintf("I, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return ""
}

// decodeOpcode extracts the big endian 16-bit opcode from instruction bytes.
func decodeOpcode(data []byte) (uint16, bool) {
	if len(data) < 2 {
		return 0, false
	}
	return uint16(data[0])<<8 | uint16(data[1]), true
}

// extractRegisterX extracts the X register nibble from an opcode.
func extractRegisterX(opcode uint16) uint16 {
	return (opcode & 0x0F00) >> 8
}

// extractRegisterY extracts the Y register nibble from an opcode.
func extractRegisterY(opcode uint16) uint16 {
	return (opcode & 0x00F0) >> 4
}
