package renderer

import (
	"image"
	"image/color"

	"github.com/achilleasa/playground/types"
)

// A rendered frame. Buffers are row-major and must be treated as read-only
// since the engine keeps them as the accumulation base.
type Frame struct {
	Width  int
	Height int

	// Displayed (possibly denoised) color.
	RGB []types.Vec3

	// Accumulated color before denoising.
	Noisy []types.Vec3

	Opacity []float32
}

// Convert the displayed buffer to an 8-bit image.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.RGB[y*f.Width+x].Clamp(0, 1)
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(c[0]*255 + 0.5),
				G: uint8(c[1]*255 + 0.5),
				B: uint8(c[2]*255 + 0.5),
				A: 255,
			})
		}
	}
	return img
}
