package keypad

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// DefaultLayout maps logical keys 0 to F onto a QWERTY keyboard, preserving
// the shape of the COSMAC VIP hexadecimal keypad:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  q w e r
//	7 8 9 E      a s d f
//	A 0 B F      z x c v
const DefaultLayout = "x123qweasdzc4rfv"

var errInvalidLayout = errors.New("invalid keypad layout")

// Mapping is a total mapping of the 16 logical keys to physical keys.
type Mapping struct {
	runes [KeyCount]rune
	keys  map[rune]Key
}

// DefaultMapping returns the mapping for DefaultLayout.
func DefaultMapping() Mapping {
	m, err := ParseMapping(DefaultLayout)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMapping parses a layout of 16 distinct printable characters, the
// character at index i being the physical key for logical key i.
// Letters are matched case-insensitively.
func ParseMapping(layout string) (Mapping, error) {
	if n := utf8.RuneCountInString(layout); n != KeyCount {
		return Mapping{}, fmt.Errorf("%w: expected %d keys, got %d", errInvalidLayout, KeyCount, n)
	}

	m := Mapping{
		keys: make(map[rune]Key, KeyCount),
	}
	var i Key
	for _, r := range layout {
		r = unicode.ToLower(r)
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return Mapping{}, fmt.Errorf("%w: key %s is not printable", errInvalidLayout, i)
		}
		if prev, ok := m.keys[r]; ok {
			return Mapping{}, fmt.Errorf("%w: '%c' is used for keys %s and %s", errInvalidLayout, r, prev, i)
		}
		m.runes[i] = r
		m.keys[r] = i
		i++
	}
	return m, nil
}

// Key returns the logical key for a physical key.
func (m Mapping) Key(r rune) (Key, bool) {
	k, ok := m.keys[unicode.ToLower(r)]
	return k, ok
}

// Rune returns the physical key for a logical key.
func (m Mapping) Rune(k Key) rune {
	if !k.Valid() {
		return utf8.RuneError
	}
	return m.runes[k]
}

// String returns the layout string of the mapping.
func (m Mapping) String() string {
	return string(m.runes[:])
}
