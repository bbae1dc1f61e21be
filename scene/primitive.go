package scene

import (
	"strings"

	"github.com/achilleasa/playground/types"
	"github.com/go-gl/mathgl/mgl32"
)

type PrimitiveType int32

const (
	NonePrimitive PrimitiveType = iota
	MirrorPrimitive
	GlassPrimitive
	DiffuseMeshPrimitive
)

const DefaultRefractiveIndex float32 = 1.33

var primitiveTypeNames = []string{
	NonePrimitive:        "None",
	MirrorPrimitive:      "Mirror",
	GlassPrimitive:       "Glass",
	DiffuseMeshPrimitive: "Diffuse Mesh",
}

func (t PrimitiveType) String() string {
	if t >= 0 && int(t) < len(primitiveTypeNames) {
		return primitiveTypeNames[t]
	}
	return "Unknown"
}

// Get the display names of all primitive types.
func PrimitiveTypeNames() []string {
	return append([]string(nil), primitiveTypeNames...)
}

// Resolve a primitive type by name. Matching is case-insensitive and
// ignores spaces so that both "Diffuse Mesh" and "diffusemesh" resolve.
func ParsePrimitiveType(name string) (PrimitiveType, error) {
	needle := strings.ReplaceAll(strings.ToLower(name), " ", "")
	for primType, typeName := range primitiveTypeNames {
		if strings.ReplaceAll(strings.ToLower(typeName), " ", "") == needle {
			return PrimitiveType(primType), nil
		}
	}
	// short alias
	if needle == "diffuse" {
		return DiffuseMeshPrimitive, nil
	}
	return NonePrimitive, ErrUnknownPrimitiveType
}

// A scene object instance. All per-vertex slices share the vertex count
// and all per-face slices share the face count.
type Primitive struct {
	// The catalog entry this primitive was instantiated from.
	GeometryType string

	// Per-vertex attributes in object space.
	Vertices       []types.Vec3
	VertexNormals  []types.Vec3
	VertexTangents []types.Vec3
	HasTangents    []bool

	// Per-face attributes.
	Triangles          [][3]int32
	MaterialUV         [][3]types.Vec2
	MaterialID         []int32
	ReflectanceScatter []float32

	Type PrimitiveType

	// Refractive index for glass primitives. It is broadcast to all faces
	// when the registry merges primitives.
	RefractiveIndex float32

	Transform *Transform
}

// Returns true if the primitive participates in merging.
func (p *Primitive) Visible() bool {
	return p.Type != NonePrimitive
}

// Get the number of faces.
func (p *Primitive) FaceCount() int {
	return len(p.Triangles)
}

// Create a deep copy of the primitive.
func (p *Primitive) Clone() *Primitive {
	clone := *p
	clone.Vertices = append([]types.Vec3(nil), p.Vertices...)
	clone.VertexNormals = append([]types.Vec3(nil), p.VertexNormals...)
	clone.VertexTangents = append([]types.Vec3(nil), p.VertexTangents...)
	clone.HasTangents = append([]bool(nil), p.HasTangents...)
	clone.Triangles = append([][3]int32(nil), p.Triangles...)
	clone.MaterialUV = append([][3]types.Vec2(nil), p.MaterialUV...)
	clone.MaterialID = append([]int32(nil), p.MaterialID...)
	clone.ReflectanceScatter = append([]float32(nil), p.ReflectanceScatter...)
	if p.Transform != nil {
		clone.Transform = p.Transform.Clone()
	}
	return &clone
}

// Return a copy of the primitive with its vertex positions, normals and
// tangents in world space. Normals and tangents are rotated and
// renormalized. The returned primitive has an identity transform.
func (p *Primitive) applyTransform() *Primitive {
	model := p.Transform.ModelMatrix()
	rot := p.Transform.RotationMatrix()

	out := *p
	out.Vertices = make([]types.Vec3, len(p.Vertices))
	out.VertexNormals = make([]types.Vec3, len(p.VertexNormals))
	out.VertexTangents = make([]types.Vec3, len(p.VertexTangents))
	for i, v := range p.Vertices {
		out.Vertices[i] = types.Vec3(mgl32.TransformCoordinate(mgl32.Vec3(v), model))
	}
	for i, n := range p.VertexNormals {
		out.VertexNormals[i] = types.Vec3(rot.Mul3x1(mgl32.Vec3(n))).Normalize()
	}
	for i, tan := range p.VertexTangents {
		out.VertexTangents[i] = types.Vec3(rot.Mul3x1(mgl32.Vec3(tan))).Normalize()
	}
	out.Transform = NewTransform()
	return &out
}

// The merged buffers of all visible primitives. Triangle indices are offset
// by the cumulative vertex count of the preceding primitives.
type Geometry struct {
	Vertices       []types.Vec3
	VertexNormals  []types.Vec3
	VertexTangents []types.Vec3
	HasTangents    []bool

	Triangles          [][3]int32
	MaterialUV         [][3]types.Vec2
	MaterialID         []int32
	PrimitiveTypes     []PrimitiveType
	ReflectanceScatter []float32
	RefractiveIndex    []float32
}

// Get the number of merged faces.
func (g *Geometry) FaceCount() int {
	return len(g.Triangles)
}

// Concatenate primitives into a single merged buffer set. Per-face type and
// refractive index arrays are derived from each primitive's scalar state.
func stack(primitives []*Primitive) *Geometry {
	geom := &Geometry{}
	var vOffset int32
	for _, p := range primitives {
		geom.Vertices = append(geom.Vertices, p.Vertices...)
		geom.VertexNormals = append(geom.VertexNormals, p.VertexNormals...)
		geom.VertexTangents = append(geom.VertexTangents, p.VertexTangents...)
		geom.HasTangents = append(geom.HasTangents, p.HasTangents...)
		for _, tri := range p.Triangles {
			geom.Triangles = append(geom.Triangles, [3]int32{tri[0] + vOffset, tri[1] + vOffset, tri[2] + vOffset})
			geom.PrimitiveTypes = append(geom.PrimitiveTypes, p.Type)
			geom.RefractiveIndex = append(geom.RefractiveIndex, p.RefractiveIndex)
		}
		geom.MaterialUV = append(geom.MaterialUV, p.MaterialUV...)
		geom.MaterialID = append(geom.MaterialID, p.MaterialID...)
		geom.ReflectanceScatter = append(geom.ReflectanceScatter, p.ReflectanceScatter...)
		vOffset += int32(len(p.Vertices))
	}
	return geom
}
