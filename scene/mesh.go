package scene

import "github.com/achilleasa/playground/types"

// Mesh data produced by procedural generators and mesh loaders.
type Mesh struct {
	Vertices      []types.Vec3
	Faces         [][3]int32
	VertexNormals []types.Vec3

	// Nil if the mesh provides no meaningful tangents.
	VertexTangents []types.Vec3

	FaceUVs [][3]types.Vec2

	// Per-face index into Materials; -1 selects the default material.
	MaterialAssignments []int32
	Materials           []MaterialSpec
}

// The MeshLoader interface is implemented by asset readers that can turn a
// mesh file into mesh data.
type MeshLoader interface {
	Load(path string) (*Mesh, error)
}

// Build a mesh from raw vertices, faces and per-face uvs. Normals and
// tangents are derived from the face geometry and all faces use the
// default material.
func NewProceduralMesh(vertices []types.Vec3, faces [][3]int32, faceUVs [][3]types.Vec2) *Mesh {
	mesh := &Mesh{
		Vertices:            vertices,
		Faces:               faces,
		FaceUVs:             faceUVs,
		MaterialAssignments: make([]int32, len(faces)),
	}
	mesh.VertexNormals = ComputeVertexNormals(vertices, faces)
	mesh.VertexTangents = ComputeVertexTangents(vertices, faces, faceUVs)
	return mesh
}

// Calculate area-weighted vertex normals.
func ComputeVertexNormals(vertices []types.Vec3, faces [][3]int32) []types.Vec3 {
	normals := make([]types.Vec3, len(vertices))
	for _, f := range faces {
		e01 := vertices[f[1]].Sub(vertices[f[0]])
		e02 := vertices[f[2]].Sub(vertices[f[0]])
		faceNormal := e01.Cross(e02)
		for _, vi := range f {
			normals[vi] = normals[vi].Add(faceNormal)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	return normals
}

// Calculate per-vertex tangents aligned with the u texture axis. Faces with
// degenerate uv mappings do not contribute.
func ComputeVertexTangents(vertices []types.Vec3, faces [][3]int32, faceUVs [][3]types.Vec2) []types.Vec3 {
	tangents := make([]types.Vec3, len(vertices))
	for fi, f := range faces {
		if fi >= len(faceUVs) {
			break
		}
		uv := faceUVs[fi]
		e1 := vertices[f[1]].Sub(vertices[f[0]])
		e2 := vertices[f[2]].Sub(vertices[f[0]])
		duv1 := uv[1].Sub(uv[0])
		duv2 := uv[2].Sub(uv[0])

		det := duv1[0]*duv2[1] - duv2[0]*duv1[1]
		if det > -1e-8 && det < 1e-8 {
			continue
		}
		tangent := e1.Mul(duv2[1]).Sub(e2.Mul(duv1[1])).Mul(1 / det)
		for _, vi := range f {
			tangents[vi] = tangents[vi].Add(tangent)
		}
	}
	for i := range tangents {
		tangents[i] = tangents[i].Normalize()
	}
	return tangents
}
