package effects

import (
	"github.com/achilleasa/playground/raygen"
	"github.com/achilleasa/playground/types"
	"github.com/go-gl/mathgl/mgl32"
)

const DefaultDOFSamples = 16

// DepthOfField is a progressive thin-lens controller. Every call to Offset
// samples a new lens position and advances the accumulated sample counter.
type DepthOfField struct {
	// The lens radius in world units.
	Aperture float32

	// Distance to the focal plane along the camera forward axis.
	FocusZ float32

	target      int
	accumulated int
}

// Create a new depth of field controller.
func NewDepthOfField(aperture, focusZ float32, targetSamples int) *DepthOfField {
	if targetSamples < 1 {
		targetSamples = DefaultDOFSamples
	}
	return &DepthOfField{
		Aperture: aperture,
		FocusZ:   focusZ,
		target:   targetSamples,
	}
}

func (d *DepthOfField) TargetSamples() int {
	return d.target
}

func (d *DepthOfField) Accumulated() int {
	return d.accumulated
}

func (d *DepthOfField) HasMoreToAccumulate() bool {
	return d.accumulated <= d.target
}

func (d *DepthOfField) Reset() {
	d.accumulated = 0
}

// Re-aim the supplied rays through a sampled lens point so that they
// converge on the focal plane. R is the camera-to-world rotation. The
// returned pack shares dims, pixel coordinates and mask with the input.
func (d *DepthOfField) Offset(R mgl32.Mat3, rays *raygen.RayPack) *raygen.RayPack {
	u, v := sobolPoint(uint32(d.accumulated + 1))
	lx, ly := concentricDisk(u, v)
	d.accumulated++

	lensOffset := types.Vec3(R.Mul3x1(mgl32.Vec3{lx * d.Aperture, ly * d.Aperture, 0}))
	forward := types.Vec3(R.Mul3x1(mgl32.Vec3{0, 0, -1}))

	out := &raygen.RayPack{
		Origins:    make([]types.Vec3, rays.Len()),
		Directions: make([]types.Vec3, rays.Len()),
		Dims:       append([]int(nil), rays.Dims...),
		PixelX:     rays.PixelX,
		PixelY:     rays.PixelY,
		Mask:       rays.Mask,
	}
	for i, origin := range rays.Origins {
		dir := rays.Directions[i]
		cosTheta := dir.Dot(forward)
		if cosTheta <= 0 {
			out.Origins[i] = origin
			out.Directions[i] = dir
			continue
		}
		focal := origin.Add(dir.Mul(d.FocusZ / cosTheta))
		out.Origins[i] = origin.Add(lensOffset)
		out.Directions[i] = focal.Sub(out.Origins[i]).Normalize()
	}
	return out
}
