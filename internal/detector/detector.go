// Package detector handles system detection of program images.
package detector

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/log"
)

var nesMagic = []byte("NES\x1a")

// Detector inspects program images before they are executed.
type Detector struct {
	logger *log.Logger
}

// New creates a new system detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the system a program image was built for from its
// content and file name. Images of unknown origin are reported as
// arch.Generic. Images that do not look like CHIP-8 programs are still
// runnable, a warning is logged for them.
func (d *Detector) Detect(filename string, program []byte) arch.System {
	system := detectFromContent(program)
	if system == "" {
		system = detectFromFile(filename)
	}

	d.logger.Debug("Detected system",
		log.Stringer("system", system),
		log.String("file", filename))

	switch system {
	case arch.CHIP8System:
	case arch.NES:
		d.logger.Warn("Program looks like an NES ROM, executing it as CHIP-8 will most likely fail",
			log.String("file", filename))
	default:
		d.logger.Warn("Unknown program file extension, executing as CHIP-8",
			log.String("file", filename))
	}
	return system
}

// detectFromContent checks for headers of other formats. CHIP-8 images
// have no header, an empty system is returned for them.
func detectFromContent(program []byte) arch.System {
	if bytes.HasPrefix(program, nesMagic) {
		return arch.NES
	}
	return ""
}

// detectFromFile determines the system type based on file extension.
func detectFromFile(filename string) arch.System {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".ch8", ".c8", ".rom":
		return arch.CHIP8System
	case ".nes":
		return arch.NES
	default:
		return arch.Generic
	}
}
