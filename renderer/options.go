package renderer

import (
	"github.com/achilleasa/playground/effects"
	"github.com/achilleasa/playground/raygen"
)

type Options struct {
	// Frame dims.
	FrameW int
	FrameH int

	// Camera projection and vertical field of view in degrees.
	CameraModel raygen.CameraModel
	FOV         float32

	// Gamma correction factor.
	Gamma float32

	// Antialiasing settings. The batch size is the number of jittered
	// samples traced per pass.
	UseAntialiasing       bool
	AntialiasingMode      effects.SPPMode
	AntialiasingBatchSize int

	// Depth of field settings.
	UseDepthOfField bool
	DOFAperture     float32
	DOFFocusZ       float32
	DOFSamples      int

	// Maximum number of surface interactions (reflections and
	// transmissions) per ray.
	MaxPBRBounces int

	// Denoise the displayed buffer.
	UseDenoiser bool
}

// Get the default render options.
func DefaultOptions() Options {
	return Options{
		FrameW:                1024,
		FrameH:                768,
		CameraModel:           raygen.Pinhole,
		FOV:                   45,
		Gamma:                 1,
		UseAntialiasing:       true,
		AntialiasingMode:      effects.MSAA4,
		AntialiasingBatchSize: 1,
		UseDepthOfField:       false,
		DOFAperture:           0.01,
		DOFFocusZ:             1,
		DOFSamples:            effects.DefaultDOFSamples,
		MaxPBRBounces:         15,
		UseDenoiser:           true,
	}
}
