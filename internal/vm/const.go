package vm

// Memory layout.
//
//	0x000-0x04F: font glyphs for the hexadecimal digits 0-F
//	0x050-0x1FF: unused
//	0x200-0xFFF: program and data
const (
	// MemorySize is the number of addressable bytes.
	MemorySize = 4096

	// ProgramStart is the address that programs are loaded to and start at.
	ProgramStart = 0x200

	// MaxProgramSize is the largest program that fits into memory.
	MaxProgramSize = MemorySize - ProgramStart

	// RegisterCount is the number of general purpose registers V0 to VF.
	RegisterCount = 16

	// FlagRegister is the index of VF which receives carry, borrow and
	// collision flags.
	FlagRegister = 0xF

	// GlyphSize is the size in bytes of a single font glyph.
	GlyphSize = 5

	// FontSize is the size in bytes of the font table.
	FontSize = 16 * GlyphSize

	opcodeSize = 2
)

// font contains the glyphs of the hexadecimal digits, each 4 pixels wide and
// 5 rows high. Glyph n starts at address n*GlyphSize.
var font = [FontSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Font returns a copy of the font table that Reset writes to address 0.
func Font() [FontSize]byte {
	return font
}
