package renderer

import (
	"github.com/achilleasa/playground/types"
	"github.com/go-gl/mathgl/mgl32"
)

// The state cached after every pass. Accumulating passes resume from the
// noisy buffer.
type lastState struct {
	viewMatrix mgl32.Mat4
	frame      *Frame
}

func (s *lastState) sameCanvas(width, height int) bool {
	return s.frame.Width == width && s.frame.Height == height
}

// Zero color and opacity for pixels outside the camera's field of view.
func applyMask(mask []bool, buffers [][]types.Vec3, opacity []float32) {
	for i, masked := range mask {
		if !masked {
			continue
		}
		for _, buf := range buffers {
			buf[i] = types.Vec3{}
		}
		opacity[i] = 0
	}
}
