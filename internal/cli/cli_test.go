package cli

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/retroenv/retrochip8/internal/keypad"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = []string{"prog", "-rate", "120", "pong.ch8"}

	opts, mapping, err := ParseFlags()
	assert.NoError(t, err)
	assert.Equal(t, "pong.ch8", opts.Input)
	assert.Equal(t, 120, opts.Rate)

	key, ok := mapping.Key('x')
	assert.True(t, ok)
	assert.Equal(t, keypad.Key(0), key)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Program
	}{
		{
			name: "defaults",
			args: []string{"prog", "game.ch8"},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.ch8"},
				Flags: options.Flags{
					Frontend: options.FrontendConsole,
					Keymap:   keypad.DefaultLayout,
					Rate:     60,
				},
			},
		},
		{
			name: "input flag",
			args: []string{"prog", "-i", "game.ch8", "-frontend", "TermBox", "-seed", "17"},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.ch8"},
				Flags: options.Flags{
					Frontend: options.FrontendTermbox,
					Keymap:   keypad.DefaultLayout,
					Rate:     60,
					Seed:     17,
				},
			},
		},
		{
			name: "trace implies debug",
			args: []string{"prog", "-trace", "-rate", "0", "-disasm", "game.ch8"},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.ch8"},
				Flags: options.Flags{
					Frontend: options.FrontendConsole,
					Keymap:   keypad.DefaultLayout,
					Disasm:   true,
					Trace:    true,
					Debug:    true,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := parseArgs(tt.args, flag.ContinueOnError)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgsCustomKeymap(t *testing.T) {
	_, mapping, err := parseArgs([]string{"prog", "-keymap", "0123456789ABCDEF", "game.ch8"}, flag.ContinueOnError)
	assert.NoError(t, err)

	key, ok := mapping.Key('b')
	assert.True(t, ok)
	assert.Equal(t, keypad.Key(0xB), key)
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		usage bool
	}{
		{name: "missing input", args: []string{"prog"}, usage: true},
		{name: "unknown flag", args: []string{"prog", "-nope", "game.ch8"}, usage: true},
		{name: "flag after file", args: []string{"prog", "game.ch8", "-q"}, usage: true},
		{name: "two files", args: []string{"prog", "a.ch8", "b.ch8"}, usage: true},
		{name: "unknown frontend", args: []string{"prog", "-frontend", "sdl", "game.ch8"}},
		{name: "negative rate", args: []string{"prog", "-rate", "-1", "game.ch8"}},
		{name: "seed too large", args: []string{"prog", "-seed", "256", "game.ch8"}},
		{name: "short keymap", args: []string{"prog", "-keymap", "abc", "game.ch8"}},
		{name: "duplicate keymap key", args: []string{"prog", "-keymap", "aa23qweasdzc4rfv", "game.ch8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseArgs(tt.args, flag.ContinueOnError)
			assert.Error(t, err)

			var usageErr *UsageError
			assert.Equal(t, tt.usage, errors.As(err, &usageErr))
		})
	}
}

func TestUsageErrorShowsReason(t *testing.T) {
	_, _, err := parseArgs([]string{"prog", "a.ch8", "b.ch8"}, flag.ContinueOnError)

	var usageErr *UsageError
	assert.ErrorAs(t, err, &usageErr)

	var buf bytes.Buffer
	usageErr.writeUsage(&buf)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "error: only one program file can be run\n"))
	assert.Contains(t, out, "usage: retrochip8")
	assert.Contains(t, out, "-keymap")
}

func TestUsageErrorWithoutReason(t *testing.T) {
	_, _, err := parseArgs([]string{"prog"}, flag.ContinueOnError)

	var usageErr *UsageError
	assert.ErrorAs(t, err, &usageErr)

	var buf bytes.Buffer
	usageErr.writeUsage(&buf)
	assert.True(t, strings.HasPrefix(buf.String(), "usage: retrochip8"))
}
