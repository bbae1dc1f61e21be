package reference

import (
	"math"
	"math/rand"
	"sort"

	"github.com/achilleasa/playground/raygen"
	"github.com/achilleasa/playground/tracer"
	"github.com/achilleasa/playground/types"
)

const (
	// Particles whose contribution drops below this value are skipped.
	minParticleAlpha = 1.0 / 255.0

	defaultSigma float32 = 0.01
)

// A volumetric model made of isotropic gaussian particles. Particles are
// composited front to back along each ray.
type PointCloud struct {
	Positions []types.Vec3
	Colors    []types.Vec3
	Opacities []float32

	// Standard deviation shared by all particles.
	Sigma float32

	// Flat background color; nil selects a black background.
	FlatBackground *types.Vec3
}

// Generate a point cloud with count particles uniformly distributed inside
// a sphere of the given radius centered at center.
func NewRandomPointCloud(count int, center types.Vec3, radius float32, seed int64) *PointCloud {
	rng := rand.New(rand.NewSource(seed))
	pc := &PointCloud{
		Positions: make([]types.Vec3, count),
		Colors:    make([]types.Vec3, count),
		Opacities: make([]float32, count),
		Sigma:     radius * 0.05,
	}
	for i := 0; i < count; i++ {
		var p types.Vec3
		for {
			p = types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1)
			if p.Len() <= 1 {
				break
			}
		}
		pc.Positions[i] = center.Add(p.Mul(radius))
		pc.Colors[i] = types.XYZ(0.5+0.5*p[0], 0.5+0.5*p[1], 0.5+0.5*p[2])
		pc.Opacities[i] = 0.5 + 0.5*rng.Float32()
	}
	return pc
}

type particleHit struct {
	t     float32
	alpha float32
	index int
}

// Trace rays through the particles.
func (pc *PointCloud) Trace(rays *raygen.RayPack) (*tracer.Result, error) {
	res := &tracer.Result{
		RGB:     make([]types.Vec3, rays.Len()),
		Opacity: make([]float32, rays.Len()),
	}

	var hits []particleHit
	for i := range rays.Origins {
		hits = pc.collectHits(rays.Origins[i], rays.Directions[i], hits[:0])
		res.RGB[i], res.Opacity[i] = pc.composite(hits)
	}
	return res, nil
}

func (pc *PointCloud) collectHits(origin, dir types.Vec3, hits []particleHit) []particleHit {
	sigma := pc.Sigma
	if sigma <= 0 {
		sigma = defaultSigma
	}
	invTwoSigmaSq := 1 / (2 * sigma * sigma)
	for pi, p := range pc.Positions {
		toP := p.Sub(origin)
		t := toP.Dot(dir)
		if t <= 0 {
			continue
		}
		offset := toP.Sub(dir.Mul(t))
		distSq := offset.Dot(offset)
		alpha := pc.Opacities[pi] * float32(math.Exp(float64(-distSq*invTwoSigmaSq)))
		if alpha < minParticleAlpha {
			continue
		}
		hits = append(hits, particleHit{t: t, alpha: alpha, index: pi})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	return hits
}

func (pc *PointCloud) composite(hits []particleHit) (types.Vec3, float32) {
	var rgb types.Vec3
	transmittance := float32(1)
	for _, hit := range hits {
		rgb = rgb.Add(pc.Colors[hit.index].Mul(transmittance * hit.alpha))
		transmittance *= 1 - hit.alpha
	}
	return rgb, 1 - transmittance
}

// Composite the flat background color behind the traced color.
func (pc *PointCloud) Background(dirs []types.Vec3, rgb []types.Vec3, opacity []float32) ([]types.Vec3, []float32, error) {
	bg, ok := pc.BackgroundColor()
	if !ok {
		return rgb, opacity, nil
	}
	out := make([]types.Vec3, len(rgb))
	for i := range rgb {
		out[i] = rgb[i].Add(bg.Mul(1 - opacity[i]))
	}
	return out, opacity, nil
}

// Get the bounding box of the particle positions.
func (pc *PointCloud) Extent() (min, max types.Vec3) {
	if len(pc.Positions) == 0 {
		return
	}
	min, max = pc.Positions[0], pc.Positions[0]
	for _, p := range pc.Positions[1:] {
		min = types.MinVec3(min, p)
		max = types.MaxVec3(max, p)
	}
	return min, max
}

func (pc *PointCloud) BackgroundColor() (types.Vec3, bool) {
	if pc.FlatBackground == nil {
		return types.Vec3{}, false
	}
	return *pc.FlatBackground, true
}
