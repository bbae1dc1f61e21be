package effects

import "math"

// Base-2 radical inverse (van der Corput); the first Sobol dimension.
func radicalInverse2(i uint32) float32 {
	i = (i << 16) | (i >> 16)
	i = ((i & 0x00ff00ff) << 8) | ((i & 0xff00ff00) >> 8)
	i = ((i & 0x0f0f0f0f) << 4) | ((i & 0xf0f0f0f0) >> 4)
	i = ((i & 0x33333333) << 2) | ((i & 0xcccccccc) >> 2)
	i = ((i & 0x55555555) << 1) | ((i & 0xaaaaaaaa) >> 1)
	return float32(float64(i) / (1 << 32))
}

// Second Sobol dimension.
func sobol2(i uint32) float32 {
	var result uint32
	for v := uint32(1 << 31); i != 0; i >>= 1 {
		if i&1 != 0 {
			result ^= v
		}
		v ^= v >> 1
	}
	return float32(float64(result) / (1 << 32))
}

// Get the i-th point of the 2D Sobol sequence in [0, 1)^2.
func sobolPoint(i uint32) (float32, float32) {
	return radicalInverse2(i), sobol2(i)
}

// Map a point of the unit square onto the unit disk preserving relative areas.
func concentricDisk(u, v float32) (float32, float32) {
	ox, oy := 2*u-1, 2*v-1
	if ox == 0 && oy == 0 {
		return 0, 0
	}

	var r, theta float64
	if math.Abs(float64(ox)) > math.Abs(float64(oy)) {
		r = float64(ox)
		theta = math.Pi / 4 * float64(oy/ox)
	} else {
		r = float64(oy)
		theta = math.Pi/2 - math.Pi/4*float64(ox/oy)
	}
	return float32(r * math.Cos(theta)), float32(r * math.Sin(theta))
}
