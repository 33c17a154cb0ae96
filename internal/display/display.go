// Package display implements the monochrome framebuffer of the virtual machine.
package display

import "strings"

// Display dimensions in pixels.
const (
	Width  = 64
	Height = 32
)

// Display is a Width x Height grid of pixels stored row-major.
// It is mutated only through Clear and Draw.
type Display struct {
	pixels [Width * Height]bool
}

// New returns a cleared display.
func New() *Display {
	return &Display{}
}

// Clear turns every pixel off.
func (d *Display) Clear() {
	d.pixels = [Width * Height]bool{}
}

// Draw toggles the pixel at x, y and returns whether it was switched from lit
// to unlit, which is the collision signal for the sprite drawing instruction.
// Coordinates must be inside the grid.
func (d *Display) Draw(x, y int) bool {
	i := y*Width + x
	d.pixels[i] = !d.pixels[i]
	return !d.pixels[i]
}

// Pixel returns whether the pixel at x, y is lit.
func (d *Display) Pixel(x, y int) bool {
	return d.pixels[y*Width+x]
}

// Snapshot returns a copy of the current grid.
func (d *Display) Snapshot() Snapshot {
	return Snapshot{pixels: d.pixels}
}

// Snapshot is a read-only copy of the framebuffer handed to renderers.
type Snapshot struct {
	pixels [Width * Height]bool
}

// Pixel returns whether the pixel at x, y is lit.
func (s Snapshot) Pixel(x, y int) bool {
	return s.pixels[y*Width+x]
}

// Lit returns the number of lit pixels.
func (s Snapshot) Lit() int {
	n := 0
	for _, p := range s.pixels {
		if p {
			n++
		}
	}
	return n
}

// String renders the snapshot as Height lines of '#' and '.' characters.
func (s Snapshot) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)
	for y := range Height {
		for x := range Width {
			if s.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
