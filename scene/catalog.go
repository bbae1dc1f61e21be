package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/achilleasa/playground/types"
)

// The name of the built-in procedural quad geometry.
const QuadGeometry = "Quad"

// Mesh file extensions picked up when scanning an assets folder.
var supportedMeshExtensions = []string{".obj"}

type geometryGenerator func() *Mesh

var proceduralGeometry = map[string]geometryGenerator{
	QuadGeometry: newQuadMesh,
}

// The Catalog resolves geometry kinds to procedural generators or mesh
// asset paths. It is populated once at startup.
type Catalog struct {
	assets map[string]string
	loader MeshLoader
}

// Create a catalog containing the procedural geometry and one entry per
// supported mesh file in assetsFolder. An empty folder path only registers
// procedural geometry. Asset entries are named after the file stem with
// the first letter capitalized.
func NewCatalog(assetsFolder string, loader MeshLoader) (*Catalog, error) {
	c := &Catalog{
		assets: make(map[string]string),
		loader: loader,
	}

	if assetsFolder != "" {
		entries, err := os.ReadDir(assetsFolder)
		if err != nil {
			return nil, fmt.Errorf("scene: could not scan assets folder: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isSupportedMesh(entry.Name()) {
				continue
			}
			stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			c.assets[capitalize(stem)] = filepath.Join(assetsFolder, entry.Name())
		}
	}

	for kind := range proceduralGeometry {
		c.assets[kind] = ""
	}
	return c, nil
}

// Get the sorted list of available geometry kinds.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.assets))
	for kind := range c.assets {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Get the asset path for a geometry kind. Procedural kinds have an empty path.
func (c *Catalog) Path(kind string) (string, bool) {
	path, exists := c.assets[kind]
	return path, exists
}

// Returns true if the kind is generated procedurally.
func (c *Catalog) IsProcedural(kind string) bool {
	_, isProcedural := proceduralGeometry[kind]
	return isProcedural
}

// Instantiate mesh data for a geometry kind.
func (c *Catalog) create(kind string) (*Mesh, error) {
	path, exists := c.assets[kind]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGeometry, kind)
	}
	if gen, isProcedural := proceduralGeometry[kind]; isProcedural {
		return gen(), nil
	}
	if c.loader == nil {
		return nil, ErrNoMeshLoader
	}

	mesh, err := c.loader.Load(path)
	if err != nil {
		return nil, err
	}
	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMesh, path)
	}
	return mesh, nil
}

func newQuadMesh() *Mesh {
	const (
		ms = 1.0
		mz = 2.5
	)
	vertices := []types.Vec3{
		{-ms, -ms, mz},
		{-ms, +ms, mz},
		{+ms, -ms, mz},
		{+ms, +ms, mz},
	}
	faces := [][3]int32{{0, 1, 2}, {2, 1, 3}}
	vertexUVs := []types.Vec2{{0, 0}, {0, 1}, {1, 0}, {1, 1}}

	faceUVs := make([][3]types.Vec2, len(faces))
	for fi, f := range faces {
		faceUVs[fi] = [3]types.Vec2{vertexUVs[f[0]], vertexUVs[f[1]], vertexUVs[f[2]]}
	}
	return NewProceduralMesh(vertices, faces, faceUVs)
}

func isSupportedMesh(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range supportedMeshExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Upper-case the first letter and lower-case the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
