// Package options contains the program options.
package options

// Frontend names accepted by the -frontend flag.
const (
	FrontendConsole = "console"
	FrontendTermbox = "termbox"
)

// Parameters contains file path options.
type Parameters struct {
	Input string `flag:"i" usage:"program image file"`
}

// Flags contains behavior options.
type Flags struct {
	Frontend string `flag:"frontend" usage:"display and input frontend: console, termbox" default:"console"`
	Keymap   string `flag:"keymap" usage:"16 keys mapped to CHIP-8 keys 0-F" default:"x123qweasdzc4rfv"`
	Rate     int    `flag:"rate" usage:"cycles per second, 0 runs unpaced" default:"60"`
	Seed     int    `flag:"seed" usage:"initial random table position 0-255"`
	Disasm   bool   `flag:"disasm" usage:"print a disassembly listing and exit"`
	Trace    bool   `flag:"trace" usage:"log every executed instruction"`
	Debug    bool   `flag:"debug" usage:"enable debug logging"`
	Quiet    bool   `flag:"q" usage:"quiet mode"`
}

// Program options of the interpreter.
type Program struct {
	Parameters
	Flags
}
