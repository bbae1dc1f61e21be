package reference

import (
	"math"
	"time"

	"github.com/achilleasa/playground/log"
	"github.com/achilleasa/playground/types"
)

const (
	// Number of centroid bins evaluated per axis when searching for a split.
	sahBins = 16

	// Nodes below this depth always become leaves so traversal stacks
	// stay bounded.
	maxBVHDepth = 30

	// Axes whose centroid extent is below this value are not split.
	minCentroidExtent float32 = 1e-6
)

// A BVH node. Leaves reference triangles[first:first+count]; inner nodes
// reference their two children which are always stored after the parent.
type bvhNode struct {
	Min types.Vec3
	Max types.Vec3

	leaf         bool
	first, count int32
	left, right  int32
}

// An axis aligned box that starts out empty and grows to fit its contents.
type bounds struct {
	min, max types.Vec3
}

func emptyBounds() bounds {
	return bounds{
		min: types.Splat3(math.MaxFloat32),
		max: types.Splat3(-math.MaxFloat32),
	}
}

func (b *bounds) grow(min, max types.Vec3) {
	b.min = types.MinVec3(b.min, min)
	b.max = types.MaxVec3(b.max, max)
}

// Half of the box surface area; empty boxes have no area.
func (b bounds) halfArea() float32 {
	side := b.max.Sub(b.min)
	if side[0] < 0 || side[1] < 0 || side[2] < 0 {
		return 0
	}
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}

type sahBin struct {
	count  int
	bounds bounds
}

type bvhSplit struct {
	axis int
	// Triangles whose centroid falls in a bin <= lastLeftBin go left.
	lastLeftBin int
	cost        float32

	centroidMin float32
	binScale    float32
}

func (s *bvhSplit) goesLeft(tri *triangle) bool {
	return binIndex(tri.center[s.axis], s.centroidMin, s.binScale) <= s.lastLeftBin
}

func binIndex(c, centroidMin, binScale float32) int {
	bin := int((c - centroidMin) * binScale)
	if bin < 0 {
		return 0
	}
	if bin >= sahBins {
		return sahBins - 1
	}
	return bin
}

type bvhBuilder struct {
	triangles   []*triangle
	minLeafSize int
	nodes       []bvhNode

	leaves   int
	maxDepth int
}

// Build a BVH over the triangle list using a binned surface area
// heuristic. The list is reordered in place so each leaf references a
// contiguous range. Ranges with at most minLeafSize triangles always
// become leaves. The root is the first node of the returned list.
func buildBVH(triangles []*triangle, minLeafSize int) []bvhNode {
	if minLeafSize < 1 {
		minLeafSize = 1
	}
	b := &bvhBuilder{
		triangles:   triangles,
		minLeafSize: minLeafSize,
		nodes:       make([]bvhNode, 0, 2*len(triangles)/minLeafSize+1),
	}

	start := time.Now()
	b.build(0, len(triangles), 0)
	log.New("bvh builder").Debugf(
		"built BVH for %d triangles in %d ms; nodes: %d, leaves: %d, max depth: %d",
		len(triangles), time.Since(start).Milliseconds(), len(b.nodes), b.leaves, b.maxDepth,
	)
	return b.nodes
}

// Build the subtree for triangles[first:last] and return its node index.
func (b *bvhBuilder) build(first, last, depth int) int32 {
	if depth > b.maxDepth {
		b.maxDepth = depth
	}

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{})

	box, centroids := emptyBounds(), emptyBounds()
	for _, tri := range b.triangles[first:last] {
		box.grow(tri.bbox[0], tri.bbox[1])
		centroids.grow(tri.center, tri.center)
	}
	b.nodes[nodeIndex].Min, b.nodes[nodeIndex].Max = box.min, box.max
	if last == first {
		b.nodes[nodeIndex].Min, b.nodes[nodeIndex].Max = types.Vec3{}, types.Vec3{}
	}

	count := last - first
	if count <= b.minLeafSize || depth >= maxBVHDepth {
		b.makeLeaf(nodeIndex, first, last)
		return nodeIndex
	}

	split, found := b.findSplit(first, last, centroids)
	if !found || split.cost >= float32(count)*box.halfArea() {
		b.makeLeaf(nodeIndex, first, last)
		return nodeIndex
	}

	mid := first
	for i := first; i < last; i++ {
		if split.goesLeft(b.triangles[i]) {
			b.triangles[i], b.triangles[mid] = b.triangles[mid], b.triangles[i]
			mid++
		}
	}

	left := b.build(first, mid, depth+1)
	right := b.build(mid, last, depth+1)
	b.nodes[nodeIndex].left, b.nodes[nodeIndex].right = left, right
	return nodeIndex
}

func (b *bvhBuilder) makeLeaf(nodeIndex int32, first, last int) {
	node := &b.nodes[nodeIndex]
	node.leaf = true
	node.first = int32(first)
	node.count = int32(last - first)
	b.leaves++
}

// Bin triangle centroids along each axis and pick the bin boundary with
// the lowest SAH cost. Splits leaving either side empty are rejected.
func (b *bvhBuilder) findSplit(first, last int, centroids bounds) (bvhSplit, bool) {
	best := bvhSplit{cost: math.MaxFloat32}
	found := false

	for axis := 0; axis < 3; axis++ {
		extent := centroids.max[axis] - centroids.min[axis]
		if extent < minCentroidExtent {
			continue
		}
		scale := float32(sahBins) / extent

		var bins [sahBins]sahBin
		for i := range bins {
			bins[i].bounds = emptyBounds()
		}
		for _, tri := range b.triangles[first:last] {
			bin := &bins[binIndex(tri.center[axis], centroids.min[axis], scale)]
			bin.count++
			bin.bounds.grow(tri.bbox[0], tri.bbox[1])
		}

		// Sweep from the right to collect the cost of every right side
		var rightCost [sahBins]float32
		var rightCount [sahBins]int
		acc, accCount := emptyBounds(), 0
		for i := sahBins - 1; i > 0; i-- {
			acc.grow(bins[i].bounds.min, bins[i].bounds.max)
			accCount += bins[i].count
			rightCost[i] = float32(accCount) * acc.halfArea()
			rightCount[i] = accCount
		}

		acc, accCount = emptyBounds(), 0
		for i := 0; i < sahBins-1; i++ {
			acc.grow(bins[i].bounds.min, bins[i].bounds.max)
			accCount += bins[i].count
			if accCount == 0 || rightCount[i+1] == 0 {
				continue
			}
			cost := float32(accCount)*acc.halfArea() + rightCost[i+1]
			if cost < best.cost {
				best = bvhSplit{
					axis:        axis,
					lastLeftBin: i,
					cost:        cost,
					centroidMin: centroids.min[axis],
					binScale:    scale,
				}
				found = true
			}
		}
	}
	return best, found
}
