package reference

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/achilleasa/playground/log"
	"github.com/achilleasa/playground/raygen"
	"github.com/achilleasa/playground/scene"
	"github.com/achilleasa/playground/tracer"
	"github.com/achilleasa/playground/types"
)

const (
	// Leaves with at most this many triangles are not split further.
	minLeafTriangles = 4

	// Offset applied to secondary ray origins to avoid self intersection.
	surfaceOffset float32 = 1e-4

	// Ambient term of the diffuse headlight shading.
	ambientTerm float32 = 0.2
)

// Tracer is a CPU implementation of the tracer contract. Rays are split
// into blocks that are traced concurrently by a pool of workers.
type Tracer struct {
	logger log.Logger

	workers     int
	scheduler   blockScheduler
	workerStats []workerStats

	nodes       []bvhNode
	triangles   []*triangle
	allowUpdate bool

	volumetricModel tracer.VolumetricModel
	materials       map[int32]*scene.Material

	// Build and upload counters.
	MeshBuilds       int
	MeshRefits       int
	VolumetricBuilds int
	MaterialUploads  int
}

// Create a new reference tracer. A non-positive worker count uses one
// worker per CPU.
func New(workers int) *Tracer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Tracer{
		logger:      log.New("reference tracer"),
		workers:     workers,
		scheduler:   newPerfectScheduler(),
		workerStats: make([]workerStats, workers),
	}
}

// Build the mesh BVH. When rebuild is false and the previous build allowed
// updates, a structure with the same face count is refitted instead of
// being rebuilt.
func (tr *Tracer) BuildMeshAcc(vertices []types.Vec3, faces [][3]int32, rebuild, allowUpdate bool) error {
	for fi, f := range faces {
		for _, vi := range f {
			if vi < 0 || int(vi) >= len(vertices) {
				return fmt.Errorf("%w: face %d, vertex %d", ErrInvalidFace, fi, vi)
			}
		}
	}

	if !rebuild && tr.allowUpdate && len(faces) == len(tr.triangles) && len(tr.nodes) != 0 {
		tr.refit(vertices, faces)
		tr.allowUpdate = allowUpdate
		tr.MeshRefits++
		return nil
	}

	triangles := make([]*triangle, len(faces))
	for fi, f := range faces {
		triangles[fi] = newTriangle(int32(fi), [3]types.Vec3{vertices[f[0]], vertices[f[1]], vertices[f[2]]})
	}

	tr.nodes = buildBVH(triangles, minLeafTriangles)
	tr.triangles = triangles
	tr.allowUpdate = allowUpdate
	tr.MeshBuilds++
	return nil
}

// Update triangle positions and recompute node bounds bottom-up. Children
// are always stored after their parent.
func (tr *Tracer) refit(vertices []types.Vec3, faces [][3]int32) {
	for _, tri := range tr.triangles {
		f := faces[tri.face]
		tri.setVertices([3]types.Vec3{vertices[f[0]], vertices[f[1]], vertices[f[2]]})
	}

	for i := len(tr.nodes) - 1; i >= 0; i-- {
		node := &tr.nodes[i]
		if node.leaf {
			items := tr.triangles[node.first : node.first+node.count]
			if len(items) == 0 {
				continue
			}
			node.Min, node.Max = items[0].bbox[0], items[0].bbox[1]
			for _, tri := range items[1:] {
				node.Min = types.MinVec3(node.Min, tri.bbox[0])
				node.Max = types.MaxVec3(node.Max, tri.bbox[1])
			}
			continue
		}
		left, right := &tr.nodes[node.left], &tr.nodes[node.right]
		node.Min = types.MinVec3(left.Min, right.Min)
		node.Max = types.MaxVec3(left.Max, right.Max)
	}
}

// Register the volumetric model.
func (tr *Tracer) BuildVolumetricAcc(model tracer.VolumetricModel, rebuild bool) error {
	if model == nil {
		return ErrNoModel
	}
	tr.volumetricModel = model
	tr.VolumetricBuilds++
	return nil
}

// The state of a ray after its surface interactions.
type surfacePath struct {
	origin     types.Vec3
	dir        types.Vec3
	throughput types.Vec3

	// Radiance of an opaque surface hit.
	rgb    types.Vec3
	opaque bool
}

// Trace a hybrid request. Rays bounce off mirrors and refract through glass
// until they hit a diffuse surface or escape into the volumetric model.
// Particles in front of the first surface hit are not composited.
func (tr *Tracer) RenderHybrid(req *tracer.HybridRequest) (*tracer.Result, error) {
	if req.Model == nil {
		return nil, ErrNoModel
	}
	if req.Geometry == nil {
		return nil, ErrNoGeometry
	}
	if req.SyncMaterials || tr.materials == nil {
		tr.materials = make(map[int32]*scene.Material, len(req.Materials))
		for _, mat := range req.Materials {
			tr.materials[mat.ID] = mat
		}
		tr.MaterialUploads++
	}

	rays := req.Rays.Flatten()
	paths := make([]surfacePath, rays.Len())
	tr.parallel(rays.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			paths[i] = tr.walk(req, rays.Origins[i], rays.Directions[i])
		}
	})

	res := &tracer.Result{
		RGB:        make([]types.Vec3, rays.Len()),
		Opacity:    make([]float32, rays.Len()),
		LastRayDir: make([]types.Vec3, rays.Len()),
	}

	var escaped []int
	for i, path := range paths {
		res.LastRayDir[i] = path.dir
		if path.opaque {
			res.RGB[i] = path.rgb
			res.Opacity[i] = 1
			continue
		}
		escaped = append(escaped, i)
	}

	if req.Options&tracer.DisableVolumetricTracing != 0 || len(escaped) == 0 {
		return res, nil
	}

	origins := make([]types.Vec3, len(escaped))
	dirs := make([]types.Vec3, len(escaped))
	for i, rayIndex := range escaped {
		origins[i] = paths[rayIndex].origin
		dirs[i] = paths[rayIndex].dir
	}
	volRays, err := raygen.NewFlat(origins, dirs)
	if err != nil {
		return nil, err
	}
	volRes, err := req.Model.Trace(volRays)
	if err != nil {
		return nil, err
	}
	for i, rayIndex := range escaped {
		res.RGB[rayIndex] = volRes.RGB[i].MulVec(paths[rayIndex].throughput)
		res.Opacity[rayIndex] = volRes.Opacity[i]
	}
	return res, nil
}

func (tr *Tracer) walk(req *tracer.HybridRequest, origin, dir types.Vec3) surfacePath {
	geom := req.Geometry
	throughput := types.Splat3(1)

	for bounce := 0; bounce <= req.MaxPBRBounces; bounce++ {
		hit, ok := tr.intersect(origin, dir)
		if !ok {
			return surfacePath{origin: origin, dir: dir, throughput: throughput}
		}

		point := origin.Add(dir.Mul(hit.dist))
		normal := tr.surfaceNormal(geom, hit, req.Options&tracer.SmoothNormals != 0)

		switch geom.PrimitiveTypes[hit.face] {
		case scene.MirrorPrimitive:
			if normal.Dot(dir) > 0 {
				normal = normal.Mul(-1)
			}
			dir = reflect(dir, normal)
			origin = point.Add(normal.Mul(surfaceOffset))
		case scene.GlassPrimitive:
			ior := geom.RefractiveIndex[hit.face]
			var refracted bool
			dir, refracted = refract(dir, normal, ior)
			// The new origin must be on the side the ray is leaving toward
			side := normal
			if dir.Dot(normal) < 0 {
				side = normal.Mul(-1)
			}
			origin = point.Add(side.Mul(surfaceOffset))
			if !refracted {
				throughput = throughput.Mul(0.9)
			}
		default:
			return surfacePath{
				dir:    dir,
				rgb:    throughput.MulVec(tr.shadeDiffuse(req, hit, normal, dir)),
				opaque: true,
			}
		}
	}

	// Out of bounces
	return surfacePath{dir: dir, opaque: true}
}

func (tr *Tracer) surfaceNormal(geom *scene.Geometry, hit surfaceHit, smooth bool) types.Vec3 {
	f := geom.Triangles[hit.face]
	if smooth && len(geom.VertexNormals) == len(geom.Vertices) {
		w := 1 - hit.u - hit.v
		n := geom.VertexNormals[f[0]].Mul(w).
			Add(geom.VertexNormals[f[1]].Mul(hit.u)).
			Add(geom.VertexNormals[f[2]].Mul(hit.v)).
			Normalize()
		if n != (types.Vec3{}) {
			return n
		}
	}
	e1 := geom.Vertices[f[1]].Sub(geom.Vertices[f[0]])
	e2 := geom.Vertices[f[2]].Sub(geom.Vertices[f[0]])
	return e1.Cross(e2).Normalize()
}

func (tr *Tracer) shadeDiffuse(req *tracer.HybridRequest, hit surfaceHit, normal, dir types.Vec3) types.Vec3 {
	geom := req.Geometry
	var matID int32
	if int(hit.face) < len(geom.MaterialID) {
		matID = geom.MaterialID[hit.face]
	}
	mat, ok := tr.materials[matID]
	if !ok {
		return types.Splat3(1)
	}

	base := types.XYZ(mat.DiffuseFactor[0], mat.DiffuseFactor[1], mat.DiffuseFactor[2])
	if req.Options&tracer.DisablePBRTextures == 0 && mat.DiffuseMap != nil && int(hit.face) < len(geom.MaterialUV) {
		uvs := geom.MaterialUV[hit.face]
		w := 1 - hit.u - hit.v
		uv := uvs[0].Mul(w).Add(uvs[1].Mul(hit.u)).Add(uvs[2].Mul(hit.v))
		texel := mat.DiffuseMap.Sample(uv[0], uv[1])
		base = base.MulVec(types.XYZ(texel[0], texel[1], texel[2]))
	}

	cosTheta := normal.Dot(dir)
	if cosTheta < 0 {
		cosTheta = -cosTheta
	}
	emissive := types.XYZ(mat.EmissiveFactor[0], mat.EmissiveFactor[1], mat.EmissiveFactor[2])
	return base.Mul(ambientTerm + (1-ambientTerm)*cosTheta).Add(emissive)
}

// Split n rays into per-worker blocks and process them concurrently.
func (tr *Tracer) parallel(n int, fn func(start, end int)) {
	blocks := tr.scheduler.Schedule(tr.workerStats, n)

	var wg sync.WaitGroup
	start := 0
	for worker, size := range blocks {
		if size == 0 {
			tr.workerStats[worker] = workerStats{}
			continue
		}
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			began := time.Now()
			fn(start, end)
			tr.workerStats[worker] = workerStats{BlockSize: end - start, BlockTime: time.Since(began)}
		}(worker, start, start+size)
		start += size
	}
	wg.Wait()
}

func reflect(dir, normal types.Vec3) types.Vec3 {
	return dir.Sub(normal.Mul(2 * dir.Dot(normal))).Normalize()
}

// Refract dir through a surface with the given index of refraction. The
// normal may face either side. Returns the reflected direction and false on
// total internal reflection.
func refract(dir, normal types.Vec3, ior float32) (types.Vec3, bool) {
	cosI := -dir.Dot(normal)
	eta := 1 / ior
	if cosI < 0 {
		// leaving the medium
		normal = normal.Mul(-1)
		cosI = -cosI
		eta = ior
	}

	k := 1 - eta*eta*(1-cosI*cosI)
	if k < 0 {
		return reflect(dir, normal), false
	}
	return dir.Mul(eta).Add(normal.Mul(eta*cosI - sqrt32(k))).Normalize(), true
}
