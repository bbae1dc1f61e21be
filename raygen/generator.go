package raygen

import (
	"fmt"
	"math"

	"github.com/achilleasa/playground/types"
	"github.com/go-gl/mathgl/mgl32"
)

// Generates camera rays for a pixel grid.
type Generator struct{}

// Create a new ray generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate one ray per pixel. If jitter is non-nil it must contain one
// offset per pixel (row-major) which is added to the pixel center. The
// returned pack has dims [1, height, width].
func (g *Generator) Generate(cam Camera, model CameraModel, jitter []mgl32.Vec2) (*RayPack, error) {
	in := cam.Intrinsics()
	if in.Width <= 0 || in.Height <= 0 {
		return nil, ErrInvalidResolution
	}
	pixelCount := in.Width * in.Height
	if jitter != nil && len(jitter) != pixelCount {
		return nil, fmt.Errorf("%w: got %d offsets for %d pixels", ErrJitterSize, len(jitter), pixelCount)
	}

	project, err := projectorFor(model, in)
	if err != nil {
		return nil, err
	}

	camToWorld := cam.ViewMatrix().Inv()
	eye := types.Vec3(camToWorld.Col(3).Vec3())
	rot := camToWorld.Mat3()

	pack := &RayPack{
		Origins:    make([]types.Vec3, pixelCount),
		Directions: make([]types.Vec3, pixelCount),
		Dims:       []int{1, in.Height, in.Width},
		PixelX:     make([]int32, pixelCount),
		PixelY:     make([]int32, pixelCount),
	}
	if model == Fisheye {
		pack.Mask = make([]bool, pixelCount)
	}

	for y := 0; y < in.Height; y++ {
		for x := 0; x < in.Width; x++ {
			idx := y*in.Width + x
			px, py := float32(x)+0.5, float32(y)+0.5
			if jitter != nil {
				px += jitter[idx][0]
				py += jitter[idx][1]
			}

			dir, outside := project(px, py)
			pack.Origins[idx] = eye
			pack.Directions[idx] = types.Vec3(rot.Mul3x1(dir)).Normalize()
			pack.PixelX[idx] = int32(math.RoundToEven(float64(px - 0.5)))
			pack.PixelY[idx] = int32(math.RoundToEven(float64(py - 0.5)))
			if pack.Mask != nil {
				pack.Mask[idx] = outside
			}
		}
	}

	return pack, nil
}

// Generate batch packs, each one jittered by the supplied source, and
// concatenate them along the batch axis. A nil source or a batch size below
// one yields a single non-jittered pack. The pixel coordinates and the mask
// of the first sample are kept.
func (g *Generator) GenerateBatch(cam Camera, model CameraModel, batch int, source JitterSource) (*RayPack, error) {
	if source == nil || batch < 1 {
		return g.Generate(cam, model, nil)
	}

	in := cam.Intrinsics()
	var out *RayPack
	for i := 0; i < batch; i++ {
		pack, err := g.Generate(cam, model, source.Jitter(in.Height, in.Width))
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = pack
			continue
		}
		out.Origins = append(out.Origins, pack.Origins...)
		out.Directions = append(out.Directions, pack.Directions...)
		out.Dims[0]++
	}
	return out, nil
}

// Maps a pixel-space sample to a camera space direction. The second result
// is true when the sample falls outside the valid field of view.
type projector func(px, py float32) (mgl32.Vec3, bool)

func projectorFor(model CameraModel, in Intrinsics) (projector, error) {
	w, h := float32(in.Width), float32(in.Height)
	fov := float64(mgl32.DegToRad(in.FOV))

	switch model {
	case Pinhole:
		tanHalf := float32(math.Tan(fov / 2))
		aspect := w / h
		return func(px, py float32) (mgl32.Vec3, bool) {
			ndcX := (2*px/w - 1) * tanHalf * aspect
			ndcY := (1 - 2*py/h) * tanHalf
			return mgl32.Vec3{ndcX, ndcY, -1}, false
		}, nil
	case Fisheye:
		radius := float32(math.Min(float64(w), float64(h))) / 2
		halfFOV := fov / 2
		return func(px, py float32) (mgl32.Vec3, bool) {
			dx := (px - w/2) / radius
			dy := (h/2 - py) / radius
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r < 1e-9 {
				return mgl32.Vec3{0, 0, -1}, r > 1
			}
			theta := r * halfFOV
			s := float32(math.Sin(theta) / r)
			return mgl32.Vec3{dx * s, dy * s, -float32(math.Cos(theta))}, r > 1
		}, nil
	}
	return nil, ErrUnknownCameraModel
}
