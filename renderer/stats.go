package renderer

import "time"

// The effect rendered by a pass.
type PassKind int

const (
	FirstPass PassKind = iota
	DepthOfFieldPass
	AntialiasingPass
	ConvergedPass
)

func (k PassKind) String() string {
	switch k {
	case FirstPass:
		return "first"
	case DepthOfFieldPass:
		return "depth of field"
	case AntialiasingPass:
		return "antialiasing"
	case ConvergedPass:
		return "converged"
	}
	return "unknown"
}

type PassStat struct {
	Kind PassKind

	// True if the pass went through the hybrid tracer.
	Hybrid bool

	// Number of traced rays and the samples accumulated after the pass.
	Rays    int
	Samples int

	// Render time for the pass
	RenderTime time.Duration
}

type FrameStats struct {
	// Individual pass stats since the last first pass.
	Passes []PassStat

	// Total render time for the passes.
	RenderTime time.Duration
}
