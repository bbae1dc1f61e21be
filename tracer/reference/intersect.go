package reference

import (
	"math"

	"github.com/achilleasa/playground/types"
)

const intersectEpsilon float32 = 1e-6

// A triangle of the merged geometry stored in BVH leaf order.
type triangle struct {
	// Index of the face in the merged geometry.
	face int32

	v      [3]types.Vec3
	bbox   [2]types.Vec3
	center types.Vec3
}

func newTriangle(face int32, v [3]types.Vec3) *triangle {
	tri := &triangle{face: face}
	tri.setVertices(v)
	return tri
}

func (t *triangle) setVertices(v [3]types.Vec3) {
	t.v = v
	t.bbox = [2]types.Vec3{
		types.MinVec3(v[0], types.MinVec3(v[1], v[2])),
		types.MaxVec3(v[0], types.MaxVec3(v[1], v[2])),
	}
	t.center = v[0].Add(v[1]).Add(v[2]).Mul(1.0 / 3.0)
}

// Möller–Trumbore ray/triangle test. Returns the hit distance and the
// barycentric coordinates of v1 and v2.
func (t *triangle) intersect(origin, dir types.Vec3) (float32, float32, float32, bool) {
	e1 := t.v[1].Sub(t.v[0])
	e2 := t.v[2].Sub(t.v[0])
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det > -intersectEpsilon && det < intersectEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	s := origin.Sub(t.v[0])
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	dist := e2.Dot(q) * invDet
	if dist <= intersectEpsilon {
		return 0, 0, 0, false
	}
	return dist, u, v, true
}

// Slab test against an axis aligned box.
func intersectAABB(origin, invDir types.Vec3, min, max types.Vec3, tMax float32) bool {
	tNear, tFar := float32(0), tMax
	for axis := 0; axis < 3; axis++ {
		t0 := (min[axis] - origin[axis]) * invDir[axis]
		t1 := (max[axis] - origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return false
		}
	}
	return true
}

type surfaceHit struct {
	dist float32
	u, v float32
	face int32
}

// Find the closest triangle hit by traversing the BVH.
func (tr *Tracer) intersect(origin, dir types.Vec3) (surfaceHit, bool) {
	hit := surfaceHit{dist: math.MaxFloat32, face: -1}
	if len(tr.nodes) == 0 {
		return hit, false
	}

	invDir := types.XYZ(safeInv(dir[0]), safeInv(dir[1]), safeInv(dir[2]))

	var stack [64]uint32
	stackSize := 1
	stack[0] = 0
	for stackSize > 0 {
		stackSize--
		node := &tr.nodes[stack[stackSize]]
		if !intersectAABB(origin, invDir, node.Min, node.Max, hit.dist) {
			continue
		}

		if !node.leaf {
			if stackSize+2 > len(stack) {
				continue
			}
			stack[stackSize] = uint32(node.left)
			stack[stackSize+1] = uint32(node.right)
			stackSize += 2
			continue
		}

		for _, tri := range tr.triangles[node.first : node.first+node.count] {
			if dist, u, v, ok := tri.intersect(origin, dir); ok && dist < hit.dist {
				hit = surfaceHit{dist: dist, u: u, v: v, face: tri.face}
			}
		}
	}
	return hit, hit.face >= 0
}

func safeInv(v float32) float32 {
	if v == 0 {
		return math.MaxFloat32
	}
	return 1 / v
}
