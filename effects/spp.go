package effects

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type SPPMode uint8

const (
	MSAA4 SPPMode = iota
	MSAA8
	MSAA16
	SobolQMC
)

const sobolTargetSamples = 64

var sppModeNames = []string{
	MSAA4:    "4x MSAA",
	MSAA8:    "8x MSAA",
	MSAA16:   "16x MSAA",
	SobolQMC: "Quasi-Random (Sobol)",
}

// Standard multisample patterns in 1/16 pixel units.
var msaaPatterns = map[SPPMode][][2]int{
	MSAA4: {{-2, -6}, {6, -2}, {-6, 2}, {2, 6}},
	MSAA8: {{1, -3}, {-1, 3}, {5, 1}, {-3, -5}, {-5, 5}, {-7, -1}, {3, 7}, {7, -7}},
	MSAA16: {
		{1, 1}, {-1, -3}, {-3, 2}, {4, -1}, {-5, -2}, {2, 5}, {5, 3}, {3, -5},
		{-2, 6}, {0, -7}, {-4, -6}, {-6, 4}, {-8, 0}, {7, -4}, {6, 7}, {-7, -8},
	},
}

func (m SPPMode) String() string {
	if int(m) < len(sppModeNames) {
		return sppModeNames[m]
	}
	return "Unknown"
}

// Get the names of all supported antialiasing modes in display order.
func SPPModeNames() []string {
	return append([]string(nil), sppModeNames...)
}

// Resolve an antialiasing mode by name. Matching is case-insensitive.
func ParseSPPMode(name string) (SPPMode, error) {
	for mode, modeName := range sppModeNames {
		if strings.EqualFold(modeName, name) {
			return SPPMode(mode), nil
		}
	}
	return MSAA4, ErrUnknownSPPMode
}

// SPP is a progressive antialiasing controller. Every call to Jitter emits
// the next sub-pixel offset of the active pattern and advances the
// accumulated sample counter.
type SPP struct {
	mode        SPPMode
	batchSize   int
	accumulated int
}

// Create a new antialiasing controller. A batch size below one defaults to one.
func NewSPP(mode SPPMode, batchSize int) *SPP {
	if batchSize < 1 {
		batchSize = 1
	}
	return &SPP{mode: mode, batchSize: batchSize}
}

// Get the active mode.
func (s *SPP) Mode() SPPMode {
	return s.mode
}

// Switch to a different mode. The accumulated sample count is reset.
func (s *SPP) SetMode(mode SPPMode) {
	s.mode = mode
	s.Reset()
}

// The number of jittered samples generated per accumulating pass.
func (s *SPP) BatchSize() int {
	return s.batchSize
}

// The number of samples the active mode accumulates.
func (s *SPP) TargetSamples() int {
	if s.mode == SobolQMC {
		return sobolTargetSamples
	}
	return len(msaaPatterns[s.mode])
}

// The number of samples accumulated since the last reset.
func (s *SPP) Accumulated() int {
	return s.accumulated
}

func (s *SPP) HasMoreToAccumulate() bool {
	return s.accumulated <= s.TargetSamples()
}

func (s *SPP) Reset() {
	s.accumulated = 0
}

// Generate a per-pixel offset grid (row-major, height × width) in the
// [-0.5, 0.5) range.
func (s *SPP) Jitter(height, width int) []mgl32.Vec2 {
	var offset mgl32.Vec2
	if s.mode == SobolQMC {
		u, v := sobolPoint(uint32(s.accumulated + 1))
		offset = mgl32.Vec2{u - 0.5, v - 0.5}
	} else {
		pattern := msaaPatterns[s.mode]
		p := pattern[s.accumulated%len(pattern)]
		offset = mgl32.Vec2{float32(p[0]) / 16, float32(p[1]) / 16}
	}
	s.accumulated++

	out := make([]mgl32.Vec2, height*width)
	for i := range out {
		out[i] = offset
	}
	return out
}
