package reader

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/playground/asset"
	"github.com/achilleasa/playground/log"
	"github.com/achilleasa/playground/scene"
	"github.com/achilleasa/playground/types"
)

type wavefrontMaterial struct {
	Name string

	// Diffuse/Albedo color and dissolve factor.
	Kd types.Vec3
	D  float32

	// Specular color and exponent.
	Ks types.Vec3
	Ns float32

	// Emissive color and scaler.
	Ke       types.Vec3
	KeScaler float32

	// Transmission filter
	Tf types.Vec3

	// Index of refraction.
	Ni float32

	// PBR extension parameters; negative if not specified.
	Pm float32
	Pr float32

	// Textures for modulating above parameters.
	KdTex     *scene.Texture
	KeTex     *scene.Texture
	PmrTex    *scene.Texture
	NormalTex *scene.Texture

	// True if this material is used by at least one face.
	Used bool
}

func newWavefrontMaterial(name string) *wavefrontMaterial {
	return &wavefrontMaterial{
		Name: name,
		Kd:   types.Vec3{0.7, 0.7, 0.7},
		D:    1,
		Pm:   -1,
		Pr:   -1,
	}
}

// Map the wavefront material properties to a material spec.
func (wf *wavefrontMaterial) Spec() scene.MaterialSpec {
	spec := scene.NewMaterialSpec(wf.Name)
	spec.DiffuseFactor = [4]float32{wf.Kd[0], wf.Kd[1], wf.Kd[2], wf.D}
	spec.DiffuseMap = wf.KdTex
	if wf.D < 1 {
		spec.AlphaMode = scene.AlphaBlend
	}

	scaler := wf.KeScaler
	if scaler == 0 {
		scaler = 1
	}
	ke := wf.Ke
	if wf.KeTex != nil && ke.MaxComponent() == 0 {
		ke = types.Splat3(1)
	}
	ke = ke.Mul(scaler)
	spec.EmissiveFactor = [3]float32{ke[0], ke[1], ke[2]}
	spec.EmissiveMap = wf.KeTex

	// Specular surfaces without an index of refraction behave as conductors
	switch {
	case wf.Pm >= 0:
		spec.Metallic = wf.Pm
	case wf.Ks.MaxComponent() > 0 && wf.Ni == 0:
		spec.Metallic = wf.Ks.MaxComponent()
	}

	switch {
	case wf.Pr >= 0:
		spec.Roughness = wf.Pr
	case wf.Ns > 0:
		spec.Roughness = float32(math.Sqrt(2 / (float64(wf.Ns) + 2)))
	default:
		spec.Roughness = 1
	}
	spec.MetallicRoughnessMap = wf.PmrTex
	spec.NormalMap = wf.NormalTex

	if wf.Ni > 0 {
		spec.IOR = wf.Ni
		if wf.Ni > 1 {
			spec.Transmission = wf.Tf.MaxComponent()
		}
	}
	return spec
}

type wavefrontReader struct {
	logger log.Logger

	// A map of material names to parsed wavefront materials
	matNameToIndex map[string]int

	// Currently selected material; nil selects the default material.
	curMaterial *wavefrontMaterial

	// Parsed wavefront materials.
	materials []*wavefrontMaterial

	// Decoded textures keyed by resolved path.
	textures map[string]*scene.Texture

	// List of vertices, normals and uv coords.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// Assembled triangles.
	faces         [][3]int32
	faceUVs       [][3]types.Vec2
	faceMaterials []*wavefrontMaterial

	// Per-vertex accumulated normals supplied by face definitions.
	vertexNormals []types.Vec3
	hasNormals    bool
	hasUVs        bool

	// An error stack that provides additional error information when
	// mesh files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new wavefront mesh reader.
func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:         log.New("wavefront reader"),
		matNameToIndex: make(map[string]int),
		textures:       make(map[string]*scene.Texture),
	}
}

// Read mesh definition.
func (r *wavefrontReader) Read(res *asset.Resource) (*scene.Mesh, error) {
	r.logger.Noticef(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}
	if len(r.faces) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFaces, res.Path())
	}

	mesh := r.assemble()
	r.logger.Noticef(
		"parsed mesh with %d vertices, %d triangles and %d materials in %d ms",
		len(mesh.Vertices), len(mesh.Faces), len(mesh.Materials), time.Since(start).Milliseconds(),
	)
	return mesh, nil
}

// Build the mesh out of the parsed data. Unused materials are pruned and
// face material assignments are remapped to the surviving entries.
func (r *wavefrontReader) assemble() *scene.Mesh {
	mesh := &scene.Mesh{
		Vertices:            r.vertexList,
		Faces:               r.faces,
		MaterialAssignments: make([]int32, len(r.faces)),
	}

	wfMaterialToMeshMaterial := make(map[*wavefrontMaterial]int32)
	pruned := 0
	for _, wfMat := range r.materials {
		if !wfMat.Used {
			r.logger.Infof("skipping unused material %q", wfMat.Name)
			pruned++
			continue
		}
		mesh.Materials = append(mesh.Materials, wfMat.Spec())
		wfMaterialToMeshMaterial[wfMat] = int32(len(mesh.Materials) - 1)
	}
	if pruned > 0 {
		r.logger.Noticef("pruned %d unused materials", pruned)
	}

	for faceIndex, wfMat := range r.faceMaterials {
		if wfMat == nil {
			mesh.MaterialAssignments[faceIndex] = -1
			continue
		}
		mesh.MaterialAssignments[faceIndex] = wfMaterialToMeshMaterial[wfMat]
	}

	if r.hasUVs {
		mesh.FaceUVs = r.faceUVs
		mesh.VertexTangents = scene.ComputeVertexTangents(mesh.Vertices, mesh.Faces, mesh.FaceUVs)
	}

	// Vertices that were never given an explicit normal fall back to the
	// area-weighted normal of the faces sharing them.
	generated := scene.ComputeVertexNormals(mesh.Vertices, mesh.Faces)
	if !r.hasNormals {
		mesh.VertexNormals = generated
		return mesh
	}
	mesh.VertexNormals = make([]types.Vec3, len(mesh.Vertices))
	for i := range mesh.VertexNormals {
		if i < len(r.vertexNormals) && r.vertexNormals[i].Len() > 0 {
			mesh.VertexNormals[i] = r.vertexNormals[i].Normalize()
			continue
		}
		mesh.VertexNormals[i] = generated[i]
	}
	return mesh
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object format.
func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}
			incRes.Close()

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			matIndex, exists := r.matNameToIndex[matName]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, matName)
			}
			r.curMaterial = r.materials[matIndex]
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "g", "o", "s":
			// All groups are merged into a single mesh
		case "f":
			if err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		default:
			r.logger.Debugf("[%s: %d] ignoring unsupported statement %q", res.Path(), lineNum, lineTokens[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	return nil
}

// Parse face definition. Each face definitions consists of 3 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list.
//
// This method only works with triangular/quad faces and will return an error if a
// face with more than 4 vertices is encountered.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var indices [4]int32
	var uv [4]types.Vec2
	var vOffset int
	var err error
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		indices[arg] = int32(vOffset)

		if expIndices > 1 && vTokens[1] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %w", arg, err)
			}
			uv[arg] = r.uvList[vOffset]
			r.hasUVs = true
		}

		if expIndices > 2 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %w", arg, err)
			}
			r.addVertexNormal(indices[arg], r.normalList[vOffset])
		}
	}

	if r.curMaterial != nil {
		r.curMaterial.Used = true
	}

	// Assemble vertices into one or two triangles depending on whether we are parsing a triangular or a quad face
	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}
	for _, sel := range indiceList {
		r.faces = append(r.faces, [3]int32{indices[sel[0]], indices[sel[1]], indices[sel[2]]})
		r.faceUVs = append(r.faceUVs, [3]types.Vec2{uv[sel[0]], uv[sel[1]], uv[sel[2]]})
		r.faceMaterials = append(r.faceMaterials, r.curMaterial)
	}
	return nil
}

// Accumulate an explicit normal for a vertex. Vertices referenced with
// different normals end up with their average.
func (r *wavefrontReader) addVertexNormal(vertex int32, normal types.Vec3) {
	for int(vertex) >= len(r.vertexNormals) {
		r.vertexNormals = append(r.vertexNormals, types.Vec3{})
	}
	r.vertexNormals[vertex] = r.vertexNormals[vertex].Add(normal.Normalize())
	r.hasNormals = true
}

// Parse a wavefront material library.
func (r *wavefrontReader) parseMaterials(res *asset.Resource) error {
	var lineNum int
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *wavefrontMaterial
	var matName string

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName = lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			curMaterial = newWavefrontMaterial(matName)
			r.materials = append(r.materials, curMaterial)
			r.matNameToIndex[matName] = len(r.materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			switch lineTokens[0] {
			case "include":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				baseMaterialIndex, exists := r.matNameToIndex[lineTokens[1]]
				if !exists {
					return r.emitError(res.Path(), lineNum, `could not include unknown material "%s"`, lineTokens[1])
				}

				// Overwrite material but keep the original name
				*curMaterial = *r.materials[baseMaterialIndex]
				curMaterial.Name = matName
				curMaterial.Used = false
			case "Kd", "Ks", "Ke", "Tf":
				var target *types.Vec3
				switch lineTokens[0] {
				case "Kd":
					target = &curMaterial.Kd
				case "Ks":
					target = &curMaterial.Ks
				case "Ke":
					target = &curMaterial.Ke
				case "Tf":
					target = &curMaterial.Tf
				}

				*target, err = parseVec3(lineTokens)
			case "Ni":
				curMaterial.Ni, err = parseFloat32(lineTokens)
			case "Ns":
				curMaterial.Ns, err = parseFloat32(lineTokens)
			case "Pm":
				curMaterial.Pm, err = parseFloat32(lineTokens)
			case "Pr":
				curMaterial.Pr, err = parseFloat32(lineTokens)
			case "KeScaler":
				curMaterial.KeScaler, err = parseFloat32(lineTokens)
			case "d":
				curMaterial.D, err = parseFloat32(lineTokens)
			case "Tr":
				var tr float32
				if tr, err = parseFloat32(lineTokens); err == nil {
					curMaterial.D = 1 - tr
				}
			case "map_Kd", "map_Ke", "map_Pm", "map_Pr", "map_normal", "norm":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				var target **scene.Texture
				switch lineTokens[0] {
				case "map_Kd":
					target = &curMaterial.KdTex
				case "map_Ke":
					target = &curMaterial.KeTex
				case "map_Pm", "map_Pr":
					target = &curMaterial.PmrTex
				case "map_normal", "norm":
					target = &curMaterial.NormalTex
				}

				// Texture options precede the file name
				*target, err = r.loadTexture(lineTokens[len(lineTokens)-1], res)
			case "map_bump", "bump":
				r.logger.Warningf("[%s: %d] ignoring bump map for material %q; only normal maps are supported", res.Path(), lineNum, curMaterial.Name)
			}

			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	return scanner.Err()
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, errors.New("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	var v types.Vec3
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(lineTokens[i+1], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(val)
	}

	return v, nil
}

// Parse a Vec2 row. The optional third texture coordinate is ignored.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 2 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected at least 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	// A missing v coordinate defaults to 0
	var v types.Vec2
	for i := 0; i < 2 && i+1 < len(lineTokens); i++ {
		val, err := strconv.ParseFloat(lineTokens[i+1], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(val)
	}

	return v, nil
}
