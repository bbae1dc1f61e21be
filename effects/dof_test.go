package effects

import (
	"math"
	"testing"

	"github.com/achilleasa/playground/raygen"
	"github.com/achilleasa/playground/types"
	"github.com/go-gl/mathgl/mgl32"
)

func TestDepthOfFieldFocalPlane(t *testing.T) {
	dof := NewDepthOfField(0.1, 2.0, 0)
	if dof.TargetSamples() != DefaultDOFSamples {
		t.Fatalf("expected default target %d; got %d", DefaultDOFSamples, dof.TargetSamples())
	}

	rays, _ := raygen.NewFlat(
		[]types.Vec3{{0, 0, 0}, {0, 0, 0}},
		[]types.Vec3{{0, 0, -1}, types.XYZ(0.2, 0, -1).Normalize()},
	)

	for sample := 0; sample < 4; sample++ {
		out := dof.Offset(mgl32.Ident3(), rays)
		for i := range rays.Origins {
			if out.Origins[i][2] != 0 {
				t.Fatalf("expected lens sample to lie on the lens plane; got %v", out.Origins[i])
			}

			// rays must meet the original ray at the focal plane
			t0 := -2.0 / rays.Directions[i][2]
			expFocal := rays.Origins[i].Add(rays.Directions[i].Mul(t0))
			t1 := -2.0 / out.Directions[i][2]
			focal := out.Origins[i].Add(out.Directions[i].Mul(t1))
			if !types.ApproxEqual(expFocal, focal, 1e-4) {
				t.Fatalf("expected ray to focus at %v; got %v", expFocal, focal)
			}
		}
	}

	if dof.Accumulated() != 4 {
		t.Fatalf("expected 4 accumulated samples; got %d", dof.Accumulated())
	}
}

func TestDepthOfFieldBudget(t *testing.T) {
	dof := NewDepthOfField(0.01, 1, 2)
	rays, _ := raygen.NewFlat([]types.Vec3{{}}, []types.Vec3{{0, 0, -1}})

	for i := 0; i < 3; i++ {
		if !dof.HasMoreToAccumulate() {
			t.Fatalf("budget exhausted early after %d samples", i)
		}
		dof.Offset(mgl32.Ident3(), rays)
	}
	if dof.HasMoreToAccumulate() {
		t.Fatal("expected budget to be exhausted")
	}
	dof.Reset()
	if !dof.HasMoreToAccumulate() {
		t.Fatal("expected reset to restore the budget")
	}
}

func TestConcentricDisk(t *testing.T) {
	for i := uint32(0); i < 64; i++ {
		x, y := concentricDisk(sobolPoint(i))
		if r := math.Hypot(float64(x), float64(y)); r > 1+1e-6 {
			t.Fatalf("sample %d outside the unit disk (r=%f)", i, r)
		}
	}
}
