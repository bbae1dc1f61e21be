package reference

import (
	"fmt"
	"math"

	"github.com/achilleasa/playground/types"
)

// Denoise applies a 3x3 box filter. Border pixels average the neighbours
// that fall inside the frame.
func (tr *Tracer) Denoise(rgb []types.Vec3, width, height int) ([]types.Vec3, error) {
	if len(rgb) != width*height {
		return nil, fmt.Errorf("%w: got %d pixels for %dx%d", ErrBufferSize, len(rgb), width, height)
	}

	out := make([]types.Vec3, len(rgb))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum types.Vec3
			var count float32
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sx, sy := x+dx, y+dy
					if sx < 0 || sy < 0 || sx >= width || sy >= height {
						continue
					}
					sum = sum.Add(rgb[sy*width+sx])
					count++
				}
			}
			out[y*width+x] = sum.Mul(1 / count)
		}
	}
	return out, nil
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
