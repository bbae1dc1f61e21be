package scene

import (
	"image"
	"image/color"
)

// A float32 image with interleaved channels stored row-major.
type Texture struct {
	Width    int
	Height   int
	Channels int
	Data     []float32
}

// Allocate a zeroed texture.
func NewTexture(width, height, channels int) *Texture {
	return &Texture{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float32, width*height*channels),
	}
}

// Convert an image into a 4 channel texture with values in [0, 1].
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	tex := NewTexture(bounds.Dx(), bounds.Dy(), 4)
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			px := tex.At(x, y)
			px[0] = float32(c.R) / 0xffff
			px[1] = float32(c.G) / 0xffff
			px[2] = float32(c.B) / 0xffff
			px[3] = float32(c.A) / 0xffff
		}
	}
	return tex
}

// Get a writable slice with the channels of pixel (x, y).
func (t *Texture) At(x, y int) []float32 {
	offset := (y*t.Width + x) * t.Channels
	return t.Data[offset : offset+t.Channels]
}

// Set every pixel to the supplied value.
func (t *Texture) Fill(value []float32) {
	for offset := 0; offset < len(t.Data); offset += t.Channels {
		copy(t.Data[offset:offset+t.Channels], value)
	}
}

// Sample the texture at uv using nearest filtering and wrap addressing.
func (t *Texture) Sample(u, v float32) []float32 {
	x := wrap(int(u*float32(t.Width)), t.Width)
	y := wrap(int((1-v)*float32(t.Height)), t.Height)
	return t.At(x, y)
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
