// Package display implements the monochrome CHIP-8 framebuffer.
package display

import "strings"

const (
	Width  = 64
	Height = 32
)

// Frame is a row-major copy of the pixel grid.
type Frame [Width * Height]bool

// At reports whether the pixel at (x, y) is set.
func (f *Frame) At(x, y int) bool {
	return f[y*Width+x]
}

// String renders the frame as text, one line per row.
func (f *Frame) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if f.At(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Surface is the framebuffer mutated by the clear and draw instructions.
type Surface struct {
	pixels Frame
	dirty  bool //to draw or not
}

// Clear unsets every pixel.
func (s *Surface) Clear() {
	s.pixels = Frame{}
	s.dirty = true
}

// Draw XORs an 8-pixel-wide sprite onto the surface with its top left
// corner at (x, y). Coordinates wrap around both edges. It reports whether
// any pixel went from set to unset.
func (s *Surface) Draw(x, y uint8, sprite []byte) bool {
	collision := false
	for row, b := range sprite {
		py := (int(y) + row) % Height
		for bit := 0; bit < 8; bit++ {
			if b&(0x80>>uint(bit)) == 0 {
				continue
			}
			px := (int(x) + bit) % Width
			i := py*Width + px
			if s.pixels[i] {
				collision = true
			}
			s.pixels[i] = !s.pixels[i]
		}
	}
	s.dirty = true
	return collision
}

// Frame returns a copy of the current pixels.
func (s *Surface) Frame() Frame {
	return s.pixels
}

// Dirty reports whether the surface changed since the last call to
// MarkClean.
func (s *Surface) Dirty() bool {
	return s.dirty
}

// MarkClean is called by the renderer once it has presented a frame.
func (s *Surface) MarkClean() {
	s.dirty = false
}
