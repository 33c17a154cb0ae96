// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroenv/retrochip8/internal/keypad"
	"github.com/retroenv/retrochip8/internal/options"
)

// ParseFlags parses command line flags and returns the program options and
// the key mapping built from the -keymap flag.
func ParseFlags() (options.Program, keypad.Mapping, error) {
	return parseArgs(os.Args, flag.ExitOnError)
}

func parseArgs(osArgs []string, handling flag.ErrorHandling) (options.Program, keypad.Mapping, error) {
	flags := flag.NewFlagSet(osArgs[0], handling)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(osArgs[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "") {
		return opts, keypad.Mapping{}, &UsageError{flags: flags}
	}

	if err := validateArgs(flags, args); err != nil {
		return opts, keypad.Mapping{}, err
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, keypad.Mapping{}, err
	}

	mapping, err := keypad.ParseMapping(opts.Keymap)
	if err != nil {
		return opts, keypad.Mapping{}, fmt.Errorf("parsing keymap: %w", err)
	}

	if len(args) > 0 {
		opts.Input = args[0]
	}
	return opts, mapping, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the reason of the error, if any, followed by the usage.
func (e *UsageError) ShowUsage() {
	e.writeUsage(os.Stdout)
}

func (e *UsageError) writeUsage(w io.Writer) {
	if e.msg != "" {
		_, _ = fmt.Fprintf(w, "error: %s\n\n", e.msg)
	}
	_, _ = fmt.Fprintf(w, "usage: retrochip8 [options] <program file>\n\n")
	if e.flags != nil {
		e.flags.SetOutput(w)
		e.flags.PrintDefaults()
	}
	_, _ = fmt.Fprintln(w)
}

// validateArgs checks if arguments are in correct order
func validateArgs(flags *flag.FlagSet, args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				flags: flags,
				msg:   fmt.Sprintf("Potential argument %s found after program file, please pass the program file as last argument", arg),
			}
		}
	}
	if len(args) > 1 {
		return &UsageError{flags: flags, msg: "only one program file can be run"}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Frontend = strings.ToLower(opts.Frontend)
	validFrontends := []string{options.FrontendConsole, options.FrontendTermbox}
	valid := false
	for _, name := range validFrontends {
		if opts.Frontend == name {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unsupported frontend: %s. Valid options: %s",
			opts.Frontend, strings.Join(validFrontends, ", "))
	}

	if opts.Rate < 0 {
		return fmt.Errorf("invalid rate %d: must not be negative", opts.Rate)
	}
	if opts.Seed < 0 || opts.Seed > 255 {
		return fmt.Errorf("invalid seed %d: must be in range 0-255", opts.Seed)
	}
	if opts.Trace {
		opts.Debug = true
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the program image file")
	flags.StringVar(&opts.Frontend, "frontend", options.FrontendConsole, "display and input frontend (console/termbox)")
	flags.StringVar(&opts.Keymap, "keymap", keypad.DefaultLayout, "16 keyboard keys mapped in order to the CHIP-8 keys 0-F")
	flags.IntVar(&opts.Rate, "rate", 60, "execution cycles per second, 0 runs as fast as possible")
	flags.IntVar(&opts.Seed, "seed", 0, "initial position in the random number table (0-255)")
	flags.BoolVar(&opts.Disasm, "disasm", false, "print a disassembly listing of the program and exit")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, implies -debug")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
