package raygen

import (
	"errors"
	"testing"

	"github.com/achilleasa/playground/types"
	"github.com/go-gl/mathgl/mgl32"
)

type testCamera struct {
	w, h int
	fov  float32
	eye  mgl32.Vec3
}

func (c testCamera) Intrinsics() Intrinsics {
	return Intrinsics{Width: c.w, Height: c.h, FOV: c.fov}
}

func (c testCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.eye, c.eye.Add(mgl32.Vec3{0, 0, -1}), mgl32.Vec3{0, 1, 0})
}

type constJitter struct {
	offset mgl32.Vec2
	calls  int
}

func (j *constJitter) Jitter(height, width int) []mgl32.Vec2 {
	j.calls++
	out := make([]mgl32.Vec2, height*width)
	for i := range out {
		out[i] = j.offset
	}
	return out
}

func TestParseCameraModel(t *testing.T) {
	type spec struct {
		in     string
		exp    CameraModel
		expErr error
	}

	specs := []spec{
		{"Pinhole", Pinhole, nil},
		{"fisheye", Fisheye, nil},
		{"Orthographic", Pinhole, ErrUnknownCameraModel},
	}

	for index, s := range specs {
		model, err := ParseCameraModel(s.in)
		if !errors.Is(err, s.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, s.expErr, err)
		}
		if err == nil && model != s.exp {
			t.Fatalf("[spec %d] expected model %s; got %s", index, s.exp, model)
		}
	}
}

func TestPinholeCenterRay(t *testing.T) {
	cam := testCamera{w: 3, h: 3, fov: 45, eye: mgl32.Vec3{1, 2, 3}}
	pack, err := NewGenerator().Generate(cam, Pinhole, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(pack.Dims) != 3 || pack.Dims[0] != 1 || pack.Dims[1] != 3 || pack.Dims[2] != 3 {
		t.Fatalf("unexpected dims %v", pack.Dims)
	}
	if pack.Mask != nil {
		t.Fatal("expected pinhole camera to produce no mask")
	}

	center := pack.Directions[4]
	if !types.ApproxEqual(center, types.XYZ(0, 0, -1), 1e-5) {
		t.Fatalf("expected center ray to point down -z; got %v", center)
	}
	if !types.ApproxEqual(pack.Origins[0], types.XYZ(1, 2, 3), 1e-5) {
		t.Fatalf("expected ray origin to match the camera position; got %v", pack.Origins[0])
	}

	// top-left pixel looks up and left
	if pack.Directions[0][0] >= 0 || pack.Directions[0][1] <= 0 {
		t.Fatalf("unexpected top-left direction %v", pack.Directions[0])
	}
}

func TestPixelCoordinateRounding(t *testing.T) {
	type spec struct {
		offset mgl32.Vec2
		expX   []int32
	}

	specs := []spec{
		{mgl32.Vec2{0, 0}, []int32{0, 1, 2, 3}},
		// x + 1.0 -> rounds half to even
		{mgl32.Vec2{0.5, 0}, []int32{0, 2, 2, 4}},
		{mgl32.Vec2{-0.5, 0}, []int32{0, 0, 2, 2}},
	}

	cam := testCamera{w: 4, h: 1, fov: 60}
	for index, s := range specs {
		pack, err := NewGenerator().Generate(cam, Pinhole, (&constJitter{offset: s.offset}).Jitter(1, 4))
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		for i, exp := range s.expX {
			if pack.PixelX[i] != exp {
				t.Fatalf("[spec %d] expected pixel x %d at index %d; got %d", index, exp, i, pack.PixelX[i])
			}
		}
	}
}

func TestFisheyeMask(t *testing.T) {
	cam := testCamera{w: 4, h: 2, fov: 180}
	pack, err := NewGenerator().Generate(cam, Fisheye, nil)
	if err != nil {
		t.Fatal(err)
	}

	expMask := []bool{
		true, false, false, true,
		true, false, false, true,
	}
	for i, exp := range expMask {
		if pack.Mask[i] != exp {
			t.Fatalf("expected mask[%d] to be %t", i, exp)
		}
	}
}

func TestGenerateBatch(t *testing.T) {
	cam := testCamera{w: 2, h: 2, fov: 45}
	jitter := &constJitter{offset: mgl32.Vec2{0.25, 0.25}}

	pack, err := NewGenerator().GenerateBatch(cam, Pinhole, 3, jitter)
	if err != nil {
		t.Fatal(err)
	}
	if jitter.calls != 3 {
		t.Fatalf("expected 3 jitter calls; got %d", jitter.calls)
	}
	if pack.Batch() != 3 || pack.Len() != 12 {
		t.Fatalf("expected 3 batches with 12 rays; got %d batches with %d rays", pack.Batch(), pack.Len())
	}
	if len(pack.PixelX) != 4 {
		t.Fatalf("expected pixel coordinates for a single sample; got %d", len(pack.PixelX))
	}

	// no source: single non-jittered batch
	pack, err = NewGenerator().GenerateBatch(cam, Pinhole, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pack.Batch() != 1 {
		t.Fatalf("expected a single batch; got %d", pack.Batch())
	}
}

func TestGenerateErrors(t *testing.T) {
	g := NewGenerator()
	if _, err := g.Generate(testCamera{w: 2, h: 2, fov: 45}, CameraModel(9), nil); !errors.Is(err, ErrUnknownCameraModel) {
		t.Fatalf("expected ErrUnknownCameraModel; got %v", err)
	}
	if _, err := g.Generate(testCamera{w: 0, h: 2, fov: 45}, Pinhole, nil); !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("expected ErrInvalidResolution; got %v", err)
	}
	if _, err := g.Generate(testCamera{w: 2, h: 2, fov: 45}, Pinhole, make([]mgl32.Vec2, 3)); !errors.Is(err, ErrJitterSize) {
		t.Fatalf("expected ErrJitterSize; got %v", err)
	}
}
