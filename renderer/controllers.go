package renderer

import (
	"github.com/achilleasa/playground/raygen"
	"github.com/go-gl/mathgl/mgl32"
)

// The Antialiasing interface is implemented by controllers that supply
// sub-pixel jitter for progressive antialiasing. Each Jitter call advances
// the accumulated sample counter by one.
type Antialiasing interface {
	raygen.JitterSource

	HasMoreToAccumulate() bool
	Accumulated() int
	TargetSamples() int
	BatchSize() int
	Reset()
}

// The DepthOfField interface is implemented by controllers that re-aim rays
// through a sampled lens position. Each Offset call advances the
// accumulated sample counter by one.
type DepthOfField interface {
	// Offset rays given the camera-to-world rotation.
	Offset(R mgl32.Mat3, rays *raygen.RayPack) *raygen.RayPack

	HasMoreToAccumulate() bool
	Accumulated() int
	TargetSamples() int
	Reset()
}
