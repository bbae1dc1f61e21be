package renderer

import (
	"math"

	"github.com/achilleasa/playground/tracer"
	"github.com/achilleasa/playground/types"
)

func pow32(v, exp float32) float32 {
	return float32(math.Pow(float64(v), float64(exp)))
}

func powVec3(v types.Vec3, exp float32) types.Vec3 {
	return types.Vec3{pow32(v[0], exp), pow32(v[1], exp), pow32(v[2], exp)}
}

// Merge a contribution worth batch samples into a buffer holding the
// gamma-corrected mean of n samples. The mean is updated in linear space.
func accumulate(prev, contrib []types.Vec3, n, batch int, gamma float32) []types.Vec3 {
	out := make([]types.Vec3, len(prev))
	fn, fTotal := float32(n), float32(n+batch)
	invGamma := 1 / gamma
	for i := range prev {
		lin := powVec3(prev[i], gamma)
		mean := types.Vec3{
			(lin[0]*fn + contrib[i][0]) / fTotal,
			(lin[1]*fn + contrib[i][1]) / fTotal,
			(lin[2]*fn + contrib[i][2]) / fTotal,
		}
		out[i] = powVec3(mean, invGamma)
	}
	return out
}

// Running mean for opacity; no gamma is involved.
func accumulateOpacity(prev, contrib []float32, n, batch int) []float32 {
	out := make([]float32, len(prev))
	fn, fTotal := float32(n), float32(n+batch)
	for i := range prev {
		out[i] = (prev[i]*fn + contrib[i]) / fTotal
	}
	return out
}

// Sum a trace result over its batch dimension.
func sumBatch(res *tracer.Result, pixels int) ([]types.Vec3, []float32) {
	rgb := make([]types.Vec3, pixels)
	opacity := make([]float32, pixels)
	for i := range res.RGB {
		rgb[i%pixels] = rgb[i%pixels].Add(res.RGB[i])
		opacity[i%pixels] += res.Opacity[i]
	}
	return rgb, opacity
}

// Average a trace result over its batch dimension.
func meanBatch(res *tracer.Result, pixels int) ([]types.Vec3, []float32) {
	rgb, opacity := sumBatch(res, pixels)
	batch := len(res.RGB) / pixels
	if batch <= 1 {
		return rgb, opacity
	}
	scale := 1 / float32(batch)
	for i := range rgb {
		rgb[i] = rgb[i].Mul(scale)
		opacity[i] *= scale
	}
	return rgb, opacity
}
