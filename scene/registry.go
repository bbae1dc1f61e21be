package scene

import (
	"fmt"
	"sort"

	"github.com/achilleasa/playground/log"
	"github.com/achilleasa/playground/types"
	"github.com/goki/kigen/ordmap"
)

const (
	// A new mesh is scaled to occupy this fraction of a small scene's
	// largest axis.
	newMeshSceneFraction float32 = 0.5

	// Scenes whose largest axis exceeds this extent are considered large
	// and new meshes are left at unit scale.
	smallSceneMaxExtent float32 = 5.0
)

// The AccelBuilder interface is implemented by tracers that can build a
// mesh acceleration structure from merged geometry.
type AccelBuilder interface {
	BuildMeshAcc(vertices []types.Vec3, faces [][3]int32, rebuild, allowUpdate bool) error
}

// The Registry owns the scene primitives and materials and maintains the
// merged geometry buffers consumed by the tracer.
type Registry struct {
	logger  log.Logger
	catalog *Catalog

	// Primitives keyed by display name in insertion order.
	objects *ordmap.Map[string, *Primitive]

	// Per geometry kind instance counters. Numbers are never reused.
	instanceCounter map[string]int

	materials      map[string]*Material
	nextMaterialID int32

	// Merged buffers of all visible primitives. An invalid cache is
	// equivalent to the registry being dirty.
	geometry cache[*Geometry]

	sceneScale types.Vec3

	// Render toggles.
	Enabled                  bool
	UseSmoothNormals         bool
	DisableVolumetricTracing bool
	DisablePBRTextures       bool
	ForceWhiteBackground     bool
	EnableEnvmap             bool
	UseEnvmapAsBackground    bool
}

// Create a new registry. The scene scale is used for auto-sizing new
// primitives; a zero scale defaults to (1, 1, 1).
func NewRegistry(catalog *Catalog, sceneScale types.Vec3) *Registry {
	if sceneScale == (types.Vec3{}) {
		sceneScale = types.Splat3(1)
	}

	materials := defaultMaterials()
	return &Registry{
		logger:           log.New("scene registry"),
		catalog:          catalog,
		objects:          ordmap.New[string, *Primitive](),
		instanceCounter:  make(map[string]int),
		materials:        materials,
		nextMaterialID:   int32(len(materials)),
		sceneScale:       sceneScale,
		Enabled:          true,
		UseSmoothNormals: true,
	}
}

// Get the geometry catalog.
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

// Get the scene scale vector.
func (r *Registry) SceneScale() types.Vec3 {
	return r.sceneScale
}

// Instantiate a geometry kind as a new primitive and return its name. An
// unknown kind returns ErrUnknownGeometry and leaves the registry untouched.
func (r *Registry) AddPrimitive(kind string, primType PrimitiveType) (string, error) {
	mesh, err := r.catalog.create(kind)
	if err != nil {
		return "", err
	}

	// Mesh-local material indices are replaced by global ids. Indices that
	// do not reference one of the mesh materials fall back to the default.
	if !r.catalog.IsProcedural(kind) {
		var mapping []int32
		if len(mesh.Materials) > 0 {
			mapping = r.RegisterMaterials(mesh.Materials, kind)
		}
		for fi, matIndex := range mesh.MaterialAssignments {
			if matIndex >= 0 && int(matIndex) < len(mapping) {
				mesh.MaterialAssignments[fi] = mapping[matIndex]
				continue
			}
			if matIndex >= 0 {
				r.logger.Warningf("%s: face %d references unknown material index %d; using default material", kind, fi, matIndex)
			}
			mesh.MaterialAssignments[fi] = 0
		}
	}

	numVerts := len(mesh.Vertices)
	numFaces := len(mesh.Faces)

	prim := &Primitive{
		GeometryType:       kind,
		Vertices:           mesh.Vertices,
		VertexNormals:      mesh.VertexNormals,
		VertexTangents:     mesh.VertexTangents,
		HasTangents:        make([]bool, numVerts),
		Triangles:          mesh.Faces,
		MaterialUV:         mesh.FaceUVs,
		MaterialID:         make([]int32, numFaces),
		ReflectanceScatter: make([]float32, numFaces),
		Type:               primType,
		RefractiveIndex:    DefaultRefractiveIndex,
		Transform:          NewTransform(),
	}
	if mesh.VertexTangents != nil {
		for i := range prim.HasTangents {
			prim.HasTangents[i] = true
		}
	} else {
		prim.VertexTangents = make([]types.Vec3, numVerts)
	}
	if prim.VertexNormals == nil {
		prim.VertexNormals = ComputeVertexNormals(mesh.Vertices, mesh.Faces)
	}
	if prim.MaterialUV == nil {
		prim.MaterialUV = make([][3]types.Vec2, numFaces)
	}

	// Faces without a material use the default one
	for fi := range prim.MaterialID {
		if fi < len(mesh.MaterialAssignments) && mesh.MaterialAssignments[fi] > 0 {
			prim.MaterialID[fi] = mesh.MaterialAssignments[fi]
		}
	}

	r.scaleToScene(mesh, prim.Transform)

	name := r.nextName(kind)
	r.objects.Add(name, prim)
	r.MarkDirty()

	r.logger.Debugf("added %s primitive %q (%d vertices, %d faces)", primType, name, numVerts, numFaces)
	return name, nil
}

// Remove a primitive.
func (r *Registry) RemovePrimitive(name string) error {
	if !r.objects.DeleteKey(name) {
		return fmt.Errorf("%w: %q", ErrUnknownPrimitive, name)
	}
	r.MarkDirty()
	return nil
}

// Add an independent deep copy of a primitive and return its name.
func (r *Registry) DuplicatePrimitive(name string) (string, error) {
	prim, exists := r.objects.ValByKey(name)
	if !exists {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrimitive, name)
	}

	dupName := r.nextName(prim.GeometryType)
	r.objects.Add(dupName, prim.Clone())
	r.MarkDirty()
	return dupName, nil
}

// Mutate a primitive in place and invalidate the merged buffers.
func (r *Registry) Update(name string, fn func(*Primitive)) error {
	prim, exists := r.objects.ValByKey(name)
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownPrimitive, name)
	}
	fn(prim)
	r.MarkDirty()
	return nil
}

// Lookup a primitive by name.
func (r *Registry) Primitive(name string) (*Primitive, bool) {
	return r.objects.ValByKey(name)
}

// Get the primitive names in insertion order.
func (r *Registry) Names() []string {
	return r.objects.Keys()
}

// Get the number of primitives.
func (r *Registry) Len() int {
	return r.objects.Len()
}

// Flag the merged buffers as stale.
func (r *Registry) MarkDirty() {
	r.geometry.Invalidate()
}

// Returns true if the merged buffers need to be rebuilt.
func (r *Registry) IsDirty() bool {
	return !r.geometry.Valid()
}

// Returns true if at least one primitive has a type other than NonePrimitive.
func (r *Registry) HasVisibleObjects() bool {
	for _, kv := range r.objects.Order {
		if kv.Val.Visible() {
			return true
		}
	}
	return false
}

// Get the merged buffers built by the last rebuild. It returns nil if the
// registry is dirty or contains no visible primitives.
func (r *Registry) Geometry() *Geometry {
	geom, _ := r.geometry.Get()
	return geom
}

// Register a list of materials under the model namespace and return the
// resolved material id for each input index. Registering an already known
// material returns its existing id.
func (r *Registry) RegisterMaterials(specs []MaterialSpec, model string) []int32 {
	ids := make([]int32, len(specs))
	for i := range specs {
		key := model + "$" + specs[i].Name
		mat, exists := r.materials[key]
		if !exists {
			mat = specs[i].toMaterial(r.nextMaterialID)
			r.materials[key] = mat
			r.nextMaterialID++
			r.logger.Debugf("registered material %q with id %d", key, mat.ID)
		}
		ids[i] = mat.ID
	}
	return ids
}

// Lookup a material by its registry key.
func (r *Registry) Material(key string) (*Material, bool) {
	mat, exists := r.materials[key]
	return mat, exists
}

// Get all registered materials ordered by id.
func (r *Registry) SortedMaterials() []*Material {
	out := make([]*Material, 0, len(r.materials))
	for _, mat := range r.materials {
		out = append(out, mat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Rebuild the merged buffers and the mesh acceleration structure if the
// registry is dirty or force is set. When no visible primitive exists the
// builder receives a single degenerate triangle. Returns true if a rebuild
// took place. If the builder fails the registry stays dirty.
func (r *Registry) RebuildIfNeeded(builder AccelBuilder, force, rebuild bool) (bool, error) {
	if r.geometry.Valid() && !force {
		return false, nil
	}

	if !r.HasVisibleObjects() {
		placeholderVerts := make([]types.Vec3, 3)
		placeholderFaces := [][3]int32{{0, 0, 0}}
		if err := builder.BuildMeshAcc(placeholderVerts, placeholderFaces, true, true); err != nil {
			return false, err
		}
		r.geometry.Set(nil)
		return true, nil
	}

	geom := r.recomputeStackedBuffers()
	if err := builder.BuildMeshAcc(geom.Vertices, geom.Triangles, rebuild, true); err != nil {
		return false, err
	}
	r.geometry.Set(geom)
	r.logger.Debugf("rebuilt merged geometry: %d vertices, %d faces", len(geom.Vertices), geom.FaceCount())
	return true, nil
}

func (r *Registry) recomputeStackedBuffers() *Geometry {
	visible := make([]*Primitive, 0, r.objects.Len())
	for _, kv := range r.objects.Order {
		if kv.Val.Visible() {
			visible = append(visible, kv.Val.applyTransform())
		}
	}
	return stack(visible)
}

// Scale the transform so the mesh's largest axis becomes 1 and, for small
// scenes, a fixed fraction of the scene's largest axis.
func (r *Registry) scaleToScene(mesh *Mesh, transform *Transform) {
	meshExtent := types.Extent(mesh.Vertices).MaxComponent()
	if meshExtent > 0 {
		transform.Scale(1 / meshExtent)
	}

	sceneExtent := r.sceneScale.MaxComponent()
	if sceneExtent > smallSceneMaxExtent {
		return
	}
	transform.Scale(newMeshSceneFraction * sceneExtent)
}

func (r *Registry) nextName(kind string) string {
	r.instanceCounter[kind]++
	return fmt.Sprintf("%s %d", kind, r.instanceCounter[kind])
}
