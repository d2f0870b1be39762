// Package screen renders frames in a pixelgl window and maps the
// keyboard onto the hex keypad.
package screen

import (
	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"

	"github.com/beanboi7/chyp8/emu/display"
)

// DefaultKeyMap lays the keypad over the left of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var DefaultKeyMap = map[uint8]pixelgl.Button{
	0x1: pixelgl.Key1, 0x2: pixelgl.Key2, 0x3: pixelgl.Key3, 0xC: pixelgl.Key4,
	0x4: pixelgl.KeyQ, 0x5: pixelgl.KeyW, 0x6: pixelgl.KeyE, 0xD: pixelgl.KeyR,
	0x7: pixelgl.KeyA, 0x8: pixelgl.KeyS, 0x9: pixelgl.KeyD, 0xE: pixelgl.KeyF,
	0xA: pixelgl.KeyZ, 0x0: pixelgl.KeyX, 0xB: pixelgl.KeyC, 0xF: pixelgl.KeyV,
}

type Window struct {
	*pixelgl.Window
	KeyMap map[uint8]pixelgl.Button

	imd   *imdraw.IMDraw
	scale float64
}

// NewWindow opens a window of the display size multiplied by scale. Must
// be called from the pixelgl main thread.
func NewWindow(title string, scale int) (*Window, error) {
	if scale <= 0 {
		return nil, errors.Errorf("scale must be positive, got %d", scale)
	}
	cfg := pixelgl.WindowConfig{
		Title:  title,
		Bounds: pixel.R(0, 0, float64(display.Width*scale), float64(display.Height*scale)),
		VSync:  true,
	}
	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}
	return &Window{
		Window: win,
		KeyMap: DefaultKeyMap,
		imd:    imdraw.New(nil),
		scale:  float64(scale),
	}, nil
}

// PollKeys reports the state of every mapped key through set. Escape
// closes the window.
func (w *Window) PollKeys(set func(key uint8, down bool) error) error {
	if w.JustPressed(pixelgl.KeyEscape) {
		w.SetClosed(true)
	}
	for key, btn := range w.KeyMap {
		if err := set(key, w.Pressed(btn)); err != nil {
			return err
		}
	}
	return nil
}

// Draw paints frame and swaps buffers. Display row 0 is the top of the
// window.
func (w *Window) Draw(frame display.Frame) {
	w.Clear(colornames.Black)
	w.imd.Clear()
	w.imd.Color = colornames.White
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			if !frame.At(x, y) {
				continue
			}
			top := float64(display.Height-y) * w.scale
			left := float64(x) * w.scale
			w.imd.Push(pixel.V(left, top-w.scale), pixel.V(left+w.scale, top))
			w.imd.Rectangle(0)
		}
	}
	w.imd.Draw(w)
	w.Update()
}
